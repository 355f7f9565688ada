package entity

// Impresa fila de la tabla de hechos ISTAT: unidades activas por territorio y granularidad ATECO.
// Las cuatro columnas de granularidad guardan códigos planos (sin puntos) de especificidad creciente
// y no siempre están alineadas entre sí.
type Impresa struct {
	ID          int64
	Region      string
	Province    string
	Sector      string // settore, 1 carácter
	Division    string // divisione, 2 caracteres
	Class       string // classe, 3 caracteres
	Subcategory string // sottocategoria, ≥4 caracteres
	ActiveUnits int64
}
