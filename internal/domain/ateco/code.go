// Package ateco contiene el núcleo puro de la clasificación ATECO: normalización de códigos,
// construcción del bosque de nodos y agregación bottom-up. No accede a la base de datos ni registra logs.
package ateco

import (
	"sort"
	"strings"
)

// Separator separa los segmentos del código jerárquico ("01.11.0").
const Separator = "."

// segmentLengths longitudes de los segmentos del código plano, consumidas de izquierda a derecha.
var segmentLengths = [...]int{1, 1, 1, 2, 1}

// ToDotted convierte un código plano ("01110") en su forma con puntos.
// Es idempotente: si el código ya contiene un separador se devuelve sin cambios.
// Longitudes no reconocidas (vacío, >6) se devuelven tal cual; nunca falla.
// La tabla de segmentos {1,1,1,2,1} es deliberada aunque difiere del formato 2.1.1 del
// importador ISTAT: los códigos con puntos ya emitidos dependen de ella.
func ToDotted(code string) string {
	if code == "" || strings.Contains(code, Separator) {
		return code
	}
	if len(code) > 6 {
		return code
	}

	var b strings.Builder
	b.Grow(len(code) + len(segmentLengths))
	rest := code
	for _, n := range segmentLengths {
		if rest == "" {
			break
		}
		if n > len(rest) {
			n = len(rest)
		}
		if b.Len() > 0 {
			b.WriteString(Separator)
		}
		b.WriteString(rest[:n])
		rest = rest[n:]
	}
	return b.String()
}

// StripDots devuelve la forma plana del código, comparable con las columnas de la tabla imprese.
func StripDots(code string) string {
	return strings.ReplaceAll(code, Separator, "")
}

// Column columna de granularidad de la tabla de hechos.
type Column string

const (
	ColumnSector      Column = "settore"
	ColumnDivision    Column = "divisione"
	ColumnClass       Column = "classe"
	ColumnSubcategory Column = "sottocategoria"
)

// Columns lista cerrada de columnas válidas (whitelist para SQL dinámico).
var Columns = []Column{ColumnSector, ColumnDivision, ColumnClass, ColumnSubcategory}

// Valid indica si la columna pertenece a la whitelist.
func (c Column) Valid() bool {
	for _, col := range Columns {
		if c == col {
			return true
		}
	}
	return false
}

// ColumnFor elige la columna de la tabla de hechos según la longitud del código plano:
// 1 → settore, 2 → divisione, 3 → classe, ≥4 → sottocategoria.
// El segundo valor es false para el código vacío.
func ColumnFor(flatCode string) (Column, bool) {
	switch n := len(flatCode); {
	case n == 0:
		return "", false
	case n == 1:
		return ColumnSector, true
	case n == 2:
		return ColumnDivision, true
	case n == 3:
		return ColumnClass, true
	default:
		return ColumnSubcategory, true
	}
}

// IsStrictPrefix indica si prefix es prefijo propio de code (code lo extiende y es más largo).
func IsStrictPrefix(prefix, code string) bool {
	return len(code) > len(prefix) && strings.HasPrefix(code, prefix)
}

// LeafCodes devuelve los códigos del conjunto que no son prefijo propio de otro código del mismo conjunto.
// La comparación se hace sobre la forma plana; el resultado conserva la forma original,
// sin duplicados y en orden ascendente. Se usa tanto para la taxonomía como para la tabla de hechos.
func LeafCodes(codes []string) []string {
	flat := make([]string, len(codes))
	for i, c := range codes {
		flat[i] = StripDots(c)
	}

	seen := make(map[string]struct{}, len(codes))
	leaves := make([]string, 0, len(codes))
	for i, c := range codes {
		if _, dup := seen[c]; dup {
			continue
		}
		isLeaf := true
		for j, other := range flat {
			if i != j && IsStrictPrefix(flat[i], other) {
				isLeaf = false
				break
			}
		}
		if isLeaf {
			seen[c] = struct{}{}
			leaves = append(leaves, c)
		}
	}
	sort.Strings(leaves)
	return leaves
}

// WithFlatForms une los códigos en su forma original y en su forma plana (sin duplicados, ordenados),
// porque la taxonomía y la tabla de hechos usan formatos distintos.
func WithFlatForms(codes []string) []string {
	set := make(map[string]struct{}, len(codes)*2)
	for _, c := range codes {
		if c == "" {
			continue
		}
		set[c] = struct{}{}
		set[StripDots(c)] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
