package usecase_test

import (
	"context"
	"testing"

	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/repository/repotest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newATECOUC(tax *repotest.Taxonomy) *usecase.ATECOUseCase {
	compiler := appateco.NewFilterCompiler(appateco.NewLeafResolver(tax, &repotest.Facts{}), zerolog.Nop())
	return usecase.NewATECOUseCase(tax, compiler)
}

func TestATECOList_FiltrosYLimite(t *testing.T) {
	uc := newATECOUC(taxonomy())

	out, err := uc.List(context.Background(), dto.ATECOListRequest{Level: 2})

	require.NoError(t, err)
	assert.Len(t, out.ATECOCodes, 2)
	assert.Equal(t, 1000, out.Limit, "límite por defecto")
	require.NotNil(t, out.Filters.Level)
	assert.Equal(t, 2, *out.Filters.Level)
}

func TestATECOList_LimiteMaximo(t *testing.T) {
	out, err := newATECOUC(taxonomy()).List(context.Background(), dto.ATECOListRequest{Limit: 1_000_000})

	require.NoError(t, err)
	assert.Equal(t, 5000, out.Limit)
}

func TestATECOList_ParametrosNegativos(t *testing.T) {
	_, err := newATECOUC(taxonomy()).List(context.Background(), dto.ATECOListRequest{Offset: -1})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestATECOGet_ConHijosYPadre(t *testing.T) {
	out, err := newATECOUC(taxonomy()).Get(context.Background(), "A.01")

	require.NoError(t, err)
	assert.Equal(t, "A.01", out.Code)
	require.NotNil(t, out.ParentCode)
	assert.Equal(t, "A", *out.ParentCode)
	require.NotNil(t, out.Parent)
	assert.Equal(t, "Agricoltura", out.Parent.Name)
	require.Len(t, out.Children, 1)
	assert.Equal(t, "A.01.1", out.Children[0].Code)
}

func TestATECOGet_Seccion(t *testing.T) {
	out, err := newATECOUC(taxonomy()).Get(context.Background(), "A")

	require.NoError(t, err)
	assert.Nil(t, out.ParentCode)
	assert.Nil(t, out.Parent)
	assert.Len(t, out.Children, 2)
}

func TestATECOGet_NoEncontrado(t *testing.T) {
	_, err := newATECOUC(taxonomy()).Get(context.Background(), "Z")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestATECOSummary(t *testing.T) {
	out, err := newATECOUC(taxonomy()).Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 4, out.General.TotalCodes)
	assert.Equal(t, 3, out.General.TotalLevels)
	assert.Equal(t, 1, out.General.MinLevel)
	assert.Equal(t, 3, out.General.MaxLevel)
	require.Len(t, out.TopSections, 1)
	assert.Equal(t, "A", out.TopSections[0].Code)
}

func TestATECOLeaves(t *testing.T) {
	uc := newATECOUC(taxonomy())

	out, err := uc.Leaves(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A.01.1", "A.02", "A011", "A02"}, out.Codes)
	assert.False(t, out.MatchNothing)

	out, err = uc.Leaves(context.Background(), "Z")
	require.NoError(t, err)
	assert.True(t, out.MatchNothing)
}
