package ateco

// Rollup calcula TotalCompanies y LeafNodeCount en post-orden; DirectCompanies ya debe estar cargado.
//
// Regla de agregación (intencional, no corregir):
//   - hoja: TotalCompanies = 0; LeafNodeCount = 1 si DirectCompanies > 0, si no 0.
//   - interior: TotalCompanies = Σ hijos.DirectCompanies (sin incluir el propio DirectCompanies
//     ni los totales de los nietos); LeafNodeCount = Σ hijos.LeafNodeCount.
//
// Un padre se calcula solo después de todos sus hijos (pila explícita, sin recursión).
func Rollup(forest []*Node) {
	type frame struct {
		node     *Node
		expanded bool
	}
	stack := make([]frame, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: forest[i]})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if !top.expanded && !top.node.IsLeaf() {
			stack[len(stack)-1].expanded = true
			for i := len(top.node.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: top.node.Children[i]})
			}
			continue
		}
		stack = stack[:len(stack)-1]
		settle(top.node)
	}
}

func settle(n *Node) {
	if n.IsLeaf() {
		n.TotalCompanies = 0
		n.LeafNodeCount = 0
		if n.DirectCompanies > 0 {
			n.LeafNodeCount = 1
		}
		return
	}
	var total int64
	leaves := 0
	for _, child := range n.Children {
		total += child.DirectCompanies
		leaves += child.LeafNodeCount
	}
	n.TotalCompanies = total
	n.LeafNodeCount = leaves
}
