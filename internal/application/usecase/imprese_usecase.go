package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const statisticsTopN = 20

// ImpreseUseCase consultas sobre la tabla de hechos. El parámetro settore se compila
// con FilterCompiler al conjunto de sottocategorie hoja antes de llegar al repositorio.
type ImpreseUseCase struct {
	repo     repository.FactRepository
	compiler *appateco.FilterCompiler
}

// NewImpreseUseCase construye el caso de uso.
func NewImpreseUseCase(repo repository.FactRepository, compiler *appateco.FilterCompiler) *ImpreseUseCase {
	return &ImpreseUseCase{repo: repo, compiler: compiler}
}

// List devuelve las filas filtradas y el desglose por región del mismo subconjunto.
func (uc *ImpreseUseCase) List(ctx context.Context, req dto.ImpreseFilterRequest) (*dto.ImpreseListResponse, error) {
	if req.Offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	f, err := uc.filter(ctx, req, true)
	if err != nil {
		return nil, err
	}

	rows, err := uc.repo.List(ctx, f, repository.FactListOptions{
		OrderBy: req.OrderBy,
		Asc:     strings.EqualFold(req.OrderDir, "ASC"),
		Limit:   clampLimit(req.Limit),
		Offset:  req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("imprese: listado: %w", err)
	}
	regional, err := uc.repo.Breakdown(ctx, f, repository.ByRegion, 0)
	if err != nil {
		return nil, fmt.Errorf("imprese: desglose regional: %w", err)
	}

	imprese := make([]dto.ImpresaDTO, 0, len(rows))
	for _, r := range rows {
		imprese = append(imprese, dto.ImpresaDTO{
			ID:                 r.ID,
			Regione:            r.Region,
			Provincia:          r.Province,
			Settore:            r.Sector,
			Divisione:          r.Division,
			Classe:             r.Class,
			Sottocategoria:     r.Subcategory,
			ImpreseAttive:      r.ActiveUnits,
			SettoreName:        r.SectorName,
			SettoreDescription: r.SectorDescription,
		})
	}
	return &dto.ImpreseListResponse{
		Imprese:           imprese,
		RegionalBreakdown: toGroupTotalDTOs(regional),
		Filters:           toFiltersDTO(req),
	}, nil
}

// Statistics estadísticas generales y top 20 por región, sector y provincia.
// Los umbrales min/max de unidades no aplican aquí.
func (uc *ImpreseUseCase) Statistics(ctx context.Context, req dto.ImpreseFilterRequest) (*dto.StatisticsResponse, error) {
	f, err := uc.filter(ctx, req, false)
	if err != nil {
		return nil, err
	}

	general, err := uc.repo.Statistics(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("imprese: estadísticas: %w", err)
	}
	out := &dto.StatisticsResponse{
		General: dto.GeneralStatsDTO{
			TotalImprese: general.Total,
			AvgImprese:   general.Average.Round(2),
			MinImprese:   general.Min,
			MaxImprese:   general.Max,
		},
		Filters: toFiltersDTO(req),
	}

	groups := []struct {
		by  repository.GroupKey
		dst *[]dto.GroupTotalDTO
	}{
		{repository.ByRegion, &out.ByRegion},
		{repository.BySector, &out.BySector},
		{repository.ByProvince, &out.ByProvince},
	}
	for _, g := range groups {
		rows, err := uc.repo.Breakdown(ctx, f, g.by, statisticsTopN)
		if err != nil {
			return nil, fmt.Errorf("imprese: estadísticas por %s: %w", g.by, err)
		}
		*g.dst = toGroupTotalDTOs(rows)
	}
	return out, nil
}

// FilterOptions valores distintos de cada dimensión con su total.
// Regiones y provincias se ordenan con la colación italiana; los códigos ATECO por código.
func (uc *ImpreseUseCase) FilterOptions(ctx context.Context) (*dto.FilterOptionsResponse, error) {
	out := &dto.FilterOptionsResponse{}
	dims := []struct {
		by  repository.GroupKey
		dst *[]dto.GroupTotalDTO
	}{
		{repository.ByRegion, &out.Regioni},
		{repository.ByProvince, &out.Province},
		{repository.BySector, &out.Settori},
		{repository.ByDivision, &out.Divisioni},
		{repository.ByClass, &out.Classi},
		{repository.BySubcategory, &out.Sottocategorie},
	}
	for _, d := range dims {
		rows, err := uc.repo.Options(ctx, d.by)
		if err != nil {
			return nil, fmt.Errorf("imprese: opciones de %s: %w", d.by, err)
		}
		if !d.by.IsATECO() {
			sortItalian(rows, d.by == repository.ByProvince)
		}
		*d.dst = toGroupTotalDTOs(rows)
	}
	return out, nil
}

// MapData agregados por provincia; min/max se aplican sobre el total de la provincia.
func (uc *ImpreseUseCase) MapData(ctx context.Context, req dto.ImpreseFilterRequest) (*dto.MapDataResponse, error) {
	f, err := uc.filter(ctx, req, true)
	if err != nil {
		return nil, err
	}
	rows, err := uc.repo.MapData(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("imprese: mapa: %w", err)
	}
	data := make([]dto.ProvinceMapDTO, 0, len(rows))
	for _, r := range rows {
		data = append(data, dto.ProvinceMapDTO{
			Provincia:    r.Province,
			Regione:      r.Region,
			TotalImprese: r.Total,
			AvgImprese:   r.Average.Round(2),
			MinImprese:   r.Min,
			MaxImprese:   r.Max,
		})
	}
	return &dto.MapDataResponse{Data: data, Filters: toFiltersDTO(req)}, nil
}

// filter convierte la petición en FactFilter y compila el código de sector.
func (uc *ImpreseUseCase) filter(ctx context.Context, req dto.ImpreseFilterRequest, withUnits bool) (repository.FactFilter, error) {
	if req.MinImprese < 0 || req.MaxImprese < 0 {
		return repository.FactFilter{}, domain.ErrInvalidInput
	}
	f := repository.FactFilter{
		Region:      strings.TrimSpace(req.Regione),
		Province:    strings.TrimSpace(req.Provincia),
		Division:    strings.TrimSpace(req.Divisione),
		Class:       strings.TrimSpace(req.Classe),
		Subcategory: strings.TrimSpace(req.Sottocategoria),
	}
	if withUnits {
		f.MinUnits = req.MinImprese
		f.MaxUnits = req.MaxImprese
	}
	if err := uc.compiler.Restrict(ctx, &f, strings.TrimSpace(req.Settore)); err != nil {
		return repository.FactFilter{}, fmt.Errorf("imprese: filtro de sector: %w", err)
	}
	return f, nil
}

// sortItalian ordena por clave con colación italiana; para provincias primero por región.
func sortItalian(rows []repository.GroupTotal, byLabelFirst bool) {
	col := collate.New(language.Italian, collate.IgnoreCase)
	sort.SliceStable(rows, func(i, j int) bool {
		if byLabelFirst {
			if c := col.CompareString(rows[i].Label, rows[j].Label); c != 0 {
				return c < 0
			}
		}
		return col.CompareString(rows[i].Key, rows[j].Key) < 0
	})
}

func toGroupTotalDTOs(rows []repository.GroupTotal) []dto.GroupTotalDTO {
	out := make([]dto.GroupTotalDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.GroupTotalDTO{
			Key:          r.Key,
			Label:        r.Label,
			TotalImprese: r.Total,
			AvgImprese:   r.Average.Round(2),
		})
	}
	return out
}

func toFiltersDTO(req dto.ImpreseFilterRequest) dto.ImpreseFiltersDTO {
	out := dto.ImpreseFiltersDTO{
		Regione:        req.Regione,
		Provincia:      req.Provincia,
		Settore:        req.Settore,
		Divisione:      req.Divisione,
		Classe:         req.Classe,
		Sottocategoria: req.Sottocategoria,
		MinImprese:     req.MinImprese,
	}
	if req.MaxImprese > 0 {
		maxUnits := req.MaxImprese
		out.MaxImprese = &maxUnits
	}
	return out
}
