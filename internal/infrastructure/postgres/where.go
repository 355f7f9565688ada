package postgres

import (
	"strconv"
	"strings"

	"github.com/jhoicas/ateco-api/internal/domain/repository"
)

// whereBuilder acumula condiciones AND con placeholders posicionales ($1, $2...).
type whereBuilder struct {
	clauses []string
	args    []any
}

// arg registra un argumento y devuelve su placeholder.
func (w *whereBuilder) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// add agrega una condición ya formada.
func (w *whereBuilder) add(clause string) {
	w.clauses = append(w.clauses, clause)
}

// eq agrega "col = $n" si el valor no está vacío.
func (w *whereBuilder) eq(col, v string) {
	if v != "" {
		w.add(col + " = " + w.arg(v))
	}
}

// sql devuelve "WHERE ..." o cadena vacía si no hay condiciones.
func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.clauses, " AND ")
}

// factWhere traduce FactFilter a condiciones sobre la tabla imprese con alias "i".
// Con withUnits=false los umbrales de unidades se ignoran (el llamador los aplica en HAVING).
// Un filtro de sector compilado vacío produce FALSE: ninguna fila.
func factWhere(f repository.FactFilter, withUnits bool) *whereBuilder {
	w := &whereBuilder{}
	w.eq("i.regione", f.Region)
	w.eq("i.provincia", f.Province)
	if f.SectorFiltered {
		if len(f.SectorCodes) == 0 {
			w.add("FALSE")
		} else {
			w.add("i.sottocategoria = ANY(" + w.arg(f.SectorCodes) + ")")
		}
	}
	w.eq("i.divisione", f.Division)
	w.eq("i.classe", f.Class)
	w.eq("i.sottocategoria", f.Subcategory)
	if withUnits {
		if f.MinUnits > 0 {
			w.add("i.imprese_attive >= " + w.arg(f.MinUnits))
		}
		if f.MaxUnits > 0 {
			w.add("i.imprese_attive <= " + w.arg(f.MaxUnits))
		}
	}
	return w
}

// orderColumn valida la columna de orden contra una whitelist; fallback si no está.
func orderColumn(requested string, allowed []string, fallback string) string {
	for _, c := range allowed {
		if c == requested {
			return c
		}
	}
	return fallback
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}
