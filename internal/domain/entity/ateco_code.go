package entity

// ATECOCode fila de la tabla de clasificación ATECO (solo etiquetas y jerarquía).
type ATECOCode struct {
	Code        string // forma jerárquica, ej. "01.11.0"
	Name        string
	Level       int    // 1–6, informativo
	ParentCode  string // vacío si es raíz
	Description string
}

// HasParent indica si la fila declara un padre.
func (c ATECOCode) HasParent() bool {
	return c.ParentCode != ""
}
