package ateco

import "github.com/jhoicas/ateco-api/internal/domain/entity"

// Node nodo del árbol ATECO. Children es propiedad exclusiva del nodo: ningún hijo se comparte
// entre padres, por lo que cada nodo puede escribirse desde una goroutine distinta sin sincronización.
type Node struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Level       int     `json:"level"`
	ParentCode  string  `json:"parent_code,omitempty"`
	Description string  `json:"description,omitempty"`
	Children    []*Node `json:"children"`

	DirectCompanies int64 `json:"direct_companies"`
	TotalCompanies  int64 `json:"total_companies"`
	LeafNodeCount   int   `json:"leaf_nodes"`
}

// FlatCode forma plana del código del nodo.
func (n *Node) FlatCode() string {
	return StripDots(n.Code)
}

// IsLeaf indica si el nodo no tiene hijos.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// BuildForest ensambla el bosque a partir de filas (code, parent_code) en una sola pasada lineal.
//
//   - Códigos y padres se normalizan con ToDotted antes de enlazar.
//   - Un hijo se adjunta a su padre en el orden de entrada (estable, sin ordenar).
//   - Sin rootFilter, toda fila con padre ausente o no resoluble es raíz.
//   - Con rootFilter, solo el nodo cuyo código coincide es raíz; lo que no cuelga de él se descarta.
//   - Los ciclos no se detectan: sus nodos nunca son raíz y quedan fuera del bosque.
//   - Códigos duplicados: gana la primera aparición.
func BuildForest(rows []entity.ATECOCode, rootFilter string) []*Node {
	rootFilter = ToDotted(rootFilter)

	byCode := make(map[string]*Node, len(rows))
	ordered := make([]*Node, 0, len(rows))
	for _, r := range rows {
		code := ToDotted(r.Code)
		if _, dup := byCode[code]; dup {
			continue
		}
		n := &Node{
			Code:        code,
			Name:        r.Name,
			Level:       r.Level,
			ParentCode:  ToDotted(r.ParentCode),
			Description: r.Description,
			Children:    []*Node{},
		}
		byCode[code] = n
		ordered = append(ordered, n)
	}

	roots := make([]*Node, 0)
	for _, n := range ordered {
		if rootFilter != "" && n.Code == rootFilter {
			roots = append(roots, n)
			continue
		}
		if n.ParentCode == n.Code {
			continue
		}
		if parent, ok := byCode[n.ParentCode]; ok && n.ParentCode != "" {
			parent.Children = append(parent.Children, n)
			continue
		}
		if rootFilter == "" {
			roots = append(roots, n)
		}
	}
	return roots
}

// Walk recorre el bosque en pre-orden con una pila explícita y llama fn para cada nodo.
func Walk(forest []*Node, fn func(*Node)) {
	stack := make([]*Node, 0, len(forest))
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, forest[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// Flatten devuelve todos los nodos del bosque en pre-orden.
func Flatten(forest []*Node) []*Node {
	var out []*Node
	Walk(forest, func(n *Node) { out = append(out, n) })
	return out
}

// Count número de nodos alcanzables desde las raíces.
func Count(forest []*Node) int {
	total := 0
	Walk(forest, func(*Node) { total++ })
	return total
}
