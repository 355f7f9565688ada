package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/entity"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
)

const (
	defaultListLimit = 1000
	maxListLimit     = 5000
)

// ATECOUseCase consultas de la tabla de clasificación (listado, detalle, resumen, hojas).
type ATECOUseCase struct {
	repo     repository.TaxonomyRepository
	compiler *appateco.FilterCompiler
}

// NewATECOUseCase construye el caso de uso.
func NewATECOUseCase(repo repository.TaxonomyRepository, compiler *appateco.FilterCompiler) *ATECOUseCase {
	return &ATECOUseCase{repo: repo, compiler: compiler}
}

// List lista códigos con filtros, orden y paginación.
func (uc *ATECOUseCase) List(ctx context.Context, req dto.ATECOListRequest) (*dto.ATECOListResponse, error) {
	if req.Level < 0 || req.Offset < 0 {
		return nil, domain.ErrInvalidInput
	}
	limit := clampLimit(req.Limit)

	rows, err := uc.repo.List(ctx, repository.ATECOListFilter{
		Level:      req.Level,
		ParentCode: strings.TrimSpace(req.ParentCode),
		Search:     strings.TrimSpace(req.Search),
		OrderBy:    req.OrderBy,
		Desc:       strings.EqualFold(req.OrderDir, "DESC"),
		Limit:      limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("ateco: listado: %w", err)
	}

	filters := dto.ATECOListFilters{ParentCode: req.ParentCode, Search: req.Search}
	if req.Level > 0 {
		level := req.Level
		filters.Level = &level
	}
	return &dto.ATECOListResponse{
		ATECOCodes: toATECOCodeDTOs(rows),
		Limit:      limit,
		Offset:     req.Offset,
		Filters:    filters,
	}, nil
}

// Get devuelve el código con sus hijos directos y su padre. domain.ErrNotFound si no existe.
func (uc *ATECOUseCase) Get(ctx context.Context, code string) (*dto.ATECODetailResponse, error) {
	row, err := uc.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	children, err := uc.repo.Children(ctx, row.Code)
	if err != nil {
		return nil, fmt.Errorf("ateco: hijos de %s: %w", row.Code, err)
	}

	out := &dto.ATECODetailResponse{
		ATECOCodeDTO: toATECOCodeDTO(*row),
		Children:     toATECOCodeDTOs(children),
	}
	if row.HasParent() {
		parent, err := uc.repo.GetByCode(ctx, row.ParentCode)
		switch {
		case err == nil:
			p := toATECOCodeDTO(*parent)
			out.Parent = &p
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("ateco: padre de %s: %w", row.Code, err)
		}
	}
	return out, nil
}

// Summary estadísticas de la clasificación: totales, códigos por nivel y secciones.
func (uc *ATECOUseCase) Summary(ctx context.Context) (*dto.ATECOSummaryResponse, error) {
	s, err := uc.repo.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("ateco: resumen: %w", err)
	}
	byLevel := make([]dto.LevelCountDTO, 0, len(s.ByLevel))
	for _, l := range s.ByLevel {
		byLevel = append(byLevel, dto.LevelCountDTO{Level: l.Level, Count: l.Count})
	}
	return &dto.ATECOSummaryResponse{
		General: dto.ATECOGeneralStatsDTO{
			TotalCodes:  s.TotalCodes,
			TotalLevels: s.TotalLevels,
			MinLevel:    s.MinLevel,
			MaxLevel:    s.MaxLevel,
		},
		ByLevel:     byLevel,
		TopSections: toATECOCodeDTOs(s.Sections),
	}, nil
}

// Leaves devuelve el filtro compilado para un código.
func (uc *ATECOUseCase) Leaves(ctx context.Context, code string) (*dto.LeafCodesResponse, error) {
	codes, err := uc.compiler.Compile(ctx, code)
	if err != nil {
		return nil, err
	}
	return &dto.LeafCodesResponse{
		Code:         code,
		Codes:        codes,
		MatchNothing: len(codes) == 0,
	}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func toATECOCodeDTO(c entity.ATECOCode) dto.ATECOCodeDTO {
	out := dto.ATECOCodeDTO{
		Code:        c.Code,
		Name:        c.Name,
		Level:       c.Level,
		Description: c.Description,
	}
	if c.HasParent() {
		parent := c.ParentCode
		out.ParentCode = &parent
	}
	return out
}

func toATECOCodeDTOs(rows []entity.ATECOCode) []dto.ATECOCodeDTO {
	out := make([]dto.ATECOCodeDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toATECOCodeDTO(r))
	}
	return out
}
