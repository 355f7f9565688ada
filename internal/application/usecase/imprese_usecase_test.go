package usecase_test

import (
	"context"
	"testing"

	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/entity"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
	"github.com/jhoicas/ateco-api/internal/domain/repository/repotest"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func taxonomy() *repotest.Taxonomy {
	return &repotest.Taxonomy{Rows: []entity.ATECOCode{
		{Code: "A", Name: "Agricoltura", Level: 1},
		{Code: "A.01", Name: "Coltivazioni", Level: 2, ParentCode: "A"},
		{Code: "A.01.1", Name: "Cereali", Level: 3, ParentCode: "A.01"},
		{Code: "A.02", Name: "Silvicoltura", Level: 2, ParentCode: "A"},
	}}
}

func newImpreseUC(facts *repotest.Facts) *usecase.ImpreseUseCase {
	compiler := appateco.NewFilterCompiler(appateco.NewLeafResolver(taxonomy(), facts), zerolog.Nop())
	return usecase.NewImpreseUseCase(facts, compiler)
}

// ──────────────────────────────────────────────────────────────────────────────
// List
// ──────────────────────────────────────────────────────────────────────────────

func TestImpreseList_CompilaSettore(t *testing.T) {
	facts := &repotest.Facts{
		ListRows: []repository.FactRow{{Impresa: entity.Impresa{ID: 1, Region: "Lazio", Subcategory: "A011", ActiveUnits: 3}}},
		Groups: map[repository.GroupKey][]repository.GroupTotal{
			repository.ByRegion: {{Key: "Lazio", Total: 3, Average: decimal.NewFromFloat(3)}},
		},
	}
	uc := newImpreseUC(facts)

	out, err := uc.List(context.Background(), dto.ImpreseFilterRequest{Settore: "A.01", Regione: " Lazio "})

	require.NoError(t, err)
	require.Len(t, out.Imprese, 1)
	assert.Equal(t, int64(3), out.Imprese[0].ImpreseAttive)
	require.Len(t, out.RegionalBreakdown, 1)

	require.NotEmpty(t, facts.Filters)
	f := facts.Filters[0]
	assert.True(t, f.SectorFiltered)
	assert.Equal(t, []string{"A.01.1", "A011"}, f.SectorCodes)
	assert.Equal(t, "Lazio", f.Region)
	assert.Equal(t, f, facts.Filters[1], "el desglose regional usa el mismo filtro")
}

func TestImpreseList_SettoreInexistenteNoDevuelveNada(t *testing.T) {
	facts := &repotest.Facts{}
	uc := newImpreseUC(facts)

	_, err := uc.List(context.Background(), dto.ImpreseFilterRequest{Settore: "Q.99"})

	require.NoError(t, err)
	f := facts.Filters[0]
	assert.True(t, f.SectorFiltered, "un código desconocido no puede equivaler a sin filtro")
	assert.Empty(t, f.SectorCodes)
}

func TestImpreseList_UmbralesNegativos(t *testing.T) {
	uc := newImpreseUC(&repotest.Facts{})

	_, err := uc.List(context.Background(), dto.ImpreseFilterRequest{MinImprese: -1})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImpreseList_FiltrosEfectivos(t *testing.T) {
	uc := newImpreseUC(&repotest.Facts{})

	out, err := uc.List(context.Background(), dto.ImpreseFilterRequest{MinImprese: 5, MaxImprese: 50})

	require.NoError(t, err)
	assert.Equal(t, int64(5), out.Filters.MinImprese)
	require.NotNil(t, out.Filters.MaxImprese)
	assert.Equal(t, int64(50), *out.Filters.MaxImprese)
	assert.NotNil(t, out.Imprese, "la lista vacía se serializa como []")
}

// ──────────────────────────────────────────────────────────────────────────────
// Statistics / MapData
// ──────────────────────────────────────────────────────────────────────────────

func TestImpreseStatistics_IgnoraUmbrales(t *testing.T) {
	facts := &repotest.Facts{
		Stats: repository.FactStats{Total: 10, Average: decimal.RequireFromString("3.3333"), Min: 1, Max: 6},
	}
	uc := newImpreseUC(facts)

	out, err := uc.Statistics(context.Background(), dto.ImpreseFilterRequest{MinImprese: 5, MaxImprese: 9})

	require.NoError(t, err)
	assert.Equal(t, "3.33", out.General.AvgImprese.String())
	for _, f := range facts.Filters {
		assert.Zero(t, f.MinUnits)
		assert.Zero(t, f.MaxUnits)
	}
}

func TestImpreseStatistics_Top20(t *testing.T) {
	regions := make([]repository.GroupTotal, 30)
	for i := range regions {
		regions[i] = repository.GroupTotal{Key: "r", Total: int64(30 - i)}
	}
	facts := &repotest.Facts{Groups: map[repository.GroupKey][]repository.GroupTotal{repository.ByRegion: regions}}

	out, err := newImpreseUC(facts).Statistics(context.Background(), dto.ImpreseFilterRequest{})

	require.NoError(t, err)
	assert.Len(t, out.ByRegion, 20)
}

func TestImpreseMapData_AplicaUmbrales(t *testing.T) {
	facts := &repotest.Facts{Provinces: []repository.ProvinceAggregate{
		{Province: "Roma", Region: "Lazio", Total: 12, Average: decimal.NewFromInt(4), Min: 1, Max: 7},
	}}

	out, err := newImpreseUC(facts).MapData(context.Background(), dto.ImpreseFilterRequest{MinImprese: 10})

	require.NoError(t, err)
	require.Len(t, out.Data, 1)
	assert.Equal(t, "Roma", out.Data[0].Provincia)
	assert.Equal(t, int64(10), facts.Filters[0].MinUnits)
}

func TestImprese_ErrorDelAlmacen(t *testing.T) {
	uc := newImpreseUC(&repotest.Facts{Err: domain.ErrStoreUnavailable})

	_, err := uc.MapData(context.Background(), dto.ImpreseFilterRequest{})

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

// ──────────────────────────────────────────────────────────────────────────────
// FilterOptions
// ──────────────────────────────────────────────────────────────────────────────

func TestFilterOptions_OrdenItaliano(t *testing.T) {
	facts := &repotest.Facts{Groups: map[repository.GroupKey][]repository.GroupTotal{
		repository.ByRegion: {{Key: "Sicilia"}, {Key: "abruzzo"}, {Key: "Lombardia"}},
		repository.ByProvince: {
			{Key: "Palermo", Label: "Sicilia"},
			{Key: "Milano", Label: "Lombardia"},
			{Key: "Bergamo", Label: "Lombardia"},
		},
		repository.BySector: {{Key: "C"}, {Key: "A"}},
	}}

	out, err := newImpreseUC(facts).FilterOptions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"abruzzo", "Lombardia", "Sicilia"}, keys(out.Regioni))
	assert.Equal(t, []string{"Bergamo", "Milano", "Palermo"}, keys(out.Province), "provincias agrupadas por región")
	assert.Equal(t, []string{"C", "A"}, keys(out.Settori), "los códigos ATECO conservan el orden del almacén")
	assert.NotNil(t, out.Classi)
}

func keys(rows []dto.GroupTotalDTO) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key
	}
	return out
}
