package ateco_test

import (
	"testing"

	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/stretchr/testify/assert"
)

func node(code string, direct int64, children ...*ateco.Node) *ateco.Node {
	if children == nil {
		children = []*ateco.Node{}
	}
	return &ateco.Node{Code: code, DirectCompanies: direct, Children: children}
}

// TestRollup_TotalExcluyeDirectoPropio fija la regla de agregación: el total de un nodo
// interior suma solo el directo de sus hijos inmediatos, nunca el suyo.
func TestRollup_TotalExcluyeDirectoPropio(t *testing.T) {
	a := node("A", 10, node("A.01", 100), node("A.02", 30))

	ateco.Rollup([]*ateco.Node{a})

	assert.Equal(t, int64(130), a.TotalCompanies, "130 y no 140: el directo de A no se suma")
	assert.Equal(t, int64(10), a.DirectCompanies)
	assert.Equal(t, 2, a.LeafNodeCount)
}

func TestRollup_HojaSinEmpresasNoCuenta(t *testing.T) {
	a := node("A", 0, node("A.01", 0), node("A.02", 7))

	ateco.Rollup([]*ateco.Node{a})

	assert.Equal(t, 0, a.Children[0].LeafNodeCount, "una hoja con directo 0 aporta 0 hojas")
	assert.Equal(t, 1, a.Children[1].LeafNodeCount)
	assert.Equal(t, 1, a.LeafNodeCount)
	assert.Zero(t, a.Children[1].TotalCompanies, "el total de una hoja es 0")
}

func TestRollup_NoIncluyeNietos(t *testing.T) {
	grand := node("A.01.1", 500)
	a := node("A", 0, node("A.01", 20, grand))

	ateco.Rollup([]*ateco.Node{a})

	assert.Equal(t, int64(500), a.Children[0].TotalCompanies)
	assert.Equal(t, int64(20), a.TotalCompanies, "solo el directo de los hijos inmediatos")
	assert.Equal(t, 1, a.LeafNodeCount, "las hojas sí se acumulan por niveles")
}

func TestRollup_ProfundidadSinRecursion(t *testing.T) {
	const depth = 100_000
	leaf := node("leaf", 1)
	cur := leaf
	for i := 0; i < depth; i++ {
		cur = node("n", 0, cur)
	}

	ateco.Rollup([]*ateco.Node{cur})

	assert.Equal(t, 1, cur.LeafNodeCount)
}
