package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appateco "github.com/jhoicas/ateco-api/internal/application/ateco"
	"github.com/jhoicas/ateco-api/internal/application/dto"
	"github.com/jhoicas/ateco-api/internal/application/usecase"
	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/entity"
	"github.com/jhoicas/ateco-api/internal/domain/repository/repotest"
	"github.com/jhoicas/ateco-api/internal/infrastructure/metrics"
	apphttp "github.com/jhoicas/ateco-api/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

// buildTestApp arma la aplicación completa sobre repositorios en memoria.
func buildTestApp(tax *repotest.Taxonomy, facts *repotest.Facts, db apphttp.Pinger) *fiber.App {
	return buildTestAppWithLog(tax, facts, db, zerolog.Nop())
}

func buildTestAppWithLog(tax *repotest.Taxonomy, facts *repotest.Facts, db apphttp.Pinger, log zerolog.Logger) *fiber.App {
	resolver := appateco.NewLeafResolver(tax, facts)
	compiler := appateco.NewFilterCompiler(resolver, zerolog.Nop())
	app := fiber.New(fiber.Config{ErrorHandler: apphttp.ErrorHandler})
	apphttp.Router(app, apphttp.RouterDeps{
		ATECOUC:   usecase.NewATECOUseCase(tax, compiler),
		TreeUC:    appateco.NewTreeUseCase(tax, appateco.NewAggregator(facts, 2), nil, zerolog.Nop()),
		ImpreseUC: usecase.NewImpreseUseCase(facts, compiler),
		DB:        db,
		Metrics:   metrics.New("test"),
		Log:       log,
	})
	return app
}

func sampleTaxonomy() *repotest.Taxonomy {
	return &repotest.Taxonomy{Rows: []entity.ATECOCode{
		{Code: "A", Name: "Agricoltura", Level: 1},
		{Code: "A.01", Name: "Coltivazioni", Level: 2, ParentCode: "A"},
		{Code: "A.01.1", Name: "Cereali", Level: 3, ParentCode: "A.01"},
		{Code: "A.02", Name: "Silvicoltura", Level: 2, ParentCode: "A"},
	}}
}

func sampleFacts() *repotest.Facts {
	return &repotest.Facts{Rows: []entity.Impresa{
		{Sector: "A", ActiveUnits: 10},
		{Class: "A01", ActiveUnits: 100},
		{Class: "A02", ActiveUnits: 30},
	}}
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err, "la petición no debe fallar a nivel de transporte")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

// ──────────────────────────────────────────────────────────────────────────────
// /api/ateco
// ──────────────────────────────────────────────────────────────────────────────

func TestTree_DevuelveConteos(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/ateco/tree")
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	var out struct {
		NodeCount int `json:"node_count"`
		Tree      []struct {
			Code            string `json:"code"`
			DirectCompanies int64  `json:"direct_companies"`
			TotalCompanies  int64  `json:"total_companies"`
			LeafNodes       int    `json:"leaf_nodes"`
		} `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 4, out.NodeCount)
	require.Len(t, out.Tree, 1)
	assert.Equal(t, int64(10), out.Tree[0].DirectCompanies)
	assert.Equal(t, int64(130), out.Tree[0].TotalCompanies)
	assert.Equal(t, 1, out.Tree[0].LeafNodes, "A.01 tiene un hijo sin empresas; solo A.02 cuenta")
}

func TestTree_Subarbol(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/ateco/tree/A.01")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.ATECOTreeResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "A.01", out.Root)
	assert.Equal(t, 2, out.NodeCount)
}

func TestTree_AlmacenNoDisponible(t *testing.T) {
	facts := sampleFacts()
	facts.Err = errors.Join(domain.ErrStoreUnavailable, errors.New("timeout"))
	app := buildTestApp(sampleTaxonomy(), facts, nil)

	resp, body := get(t, app, "/api/ateco/tree")

	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "STORE_UNAVAILABLE", e.Code)
}

func TestAlmacenNoDisponible_RegistraCausaConRequestID(t *testing.T) {
	for _, path := range []string{"/api/ateco/tree", "/api/imprese?settore=A"} {
		t.Run(path, func(t *testing.T) {
			var buf bytes.Buffer
			facts := sampleFacts()
			facts.Err = fmt.Errorf("imprese.SumActiveUnits: %w: dial tcp 10.0.0.5:5432: connection refused", domain.ErrStoreUnavailable)
			app := buildTestAppWithLog(sampleTaxonomy(), facts, nil, zerolog.New(&buf))

			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set(apphttp.HeaderRequestID, "req-42")
			resp, err := app.Test(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
			assert.NotContains(t, string(body), "connection refused", "la causa no se expone al cliente")

			var causes []string
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if strings.Contains(line, "connection refused") {
					causes = append(causes, line)
				}
			}
			require.Len(t, causes, 1, "la causa se registra una sola vez")
			assert.Contains(t, causes[0], `"request_id":"req-42"`)
			assert.Contains(t, causes[0], `"level":"error"`)
		})
	}
}

func TestGetByCode(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/ateco/A.01")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.ATECODetailResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Coltivazioni", out.Name)
	assert.Len(t, out.Children, 1)
}

func TestGetByCode_NoEncontrado(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, _ := get(t, app, "/api/ateco/Z.99")

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestLeaves(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/ateco/A.01/leaves")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.LeafCodesResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, []string{"A.01.1", "A011"}, out.Codes)
	assert.False(t, out.MatchNothing)
}

func TestSummary_NoColisionaConCodigo(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/ateco/statistics/summary")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out dto.ATECOSummaryResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 4, out.General.TotalCodes)
}

// ──────────────────────────────────────────────────────────────────────────────
// /api/imprese
// ──────────────────────────────────────────────────────────────────────────────

func TestImprese_QueryInvalida(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/imprese?minImprese=abc")

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "INVALID_QUERY", e.Code)
}

func TestImprese_UmbralNegativo(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, _ := get(t, app, "/api/imprese/map-data?minImprese=-3")

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestImprese_FiltroPorSettore(t *testing.T) {
	facts := sampleFacts()
	app := buildTestApp(sampleTaxonomy(), facts, nil)

	resp, _ := get(t, app, "/api/imprese/statistics?settore=A.01")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotEmpty(t, facts.Filters)
	assert.Equal(t, []string{"A.01.1", "A011"}, facts.Filters[0].SectorCodes)
}

func TestFilterOptions(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, body := get(t, app, "/api/imprese/filter-options")

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.FilterOptionsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.NotNil(t, out.Regioni)
}

// ──────────────────────────────────────────────────────────────────────────────
// Middlewares, health, métricas
// ──────────────────────────────────────────────────────────────────────────────

func TestRequestID_GeneraYPropaga(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)

	resp, _ := get(t, app, "/health")
	assert.Len(t, resp.Header.Get(apphttp.HeaderRequestID), 36, "UUID generado")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(apphttp.HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(apphttp.HeaderRequestID))
}

func TestHealth(t *testing.T) {
	resp, body := get(t, buildTestApp(sampleTaxonomy(), sampleFacts(), fakePinger{}), "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "connected")

	resp, _ = get(t, buildTestApp(sampleTaxonomy(), sampleFacts(), fakePinger{err: errors.New("down")}), "/health")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	app := buildTestApp(sampleTaxonomy(), sampleFacts(), nil)
	get(t, app, "/api/ateco/A")

	resp, body := get(t, app, "/metrics")

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `route="/api/ateco/:code"`)
}

func TestRutaInexistente(t *testing.T) {
	resp, body := get(t, buildTestApp(sampleTaxonomy(), sampleFacts(), nil), "/api/nada")

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	assert.Equal(t, "NOT_FOUND", e.Code)
}
