// Package repotest implementaciones en memoria de los puertos de lectura, para tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/ateco-api/internal/domain"
	"github.com/jhoicas/ateco-api/internal/domain/ateco"
	"github.com/jhoicas/ateco-api/internal/domain/entity"
	"github.com/jhoicas/ateco-api/internal/domain/repository"
)

// Taxonomy TaxonomyRepository sobre un slice. Err, si no es nil, lo devuelven todas las operaciones.
type Taxonomy struct {
	Rows []entity.ATECOCode
	Err  error
}

var _ repository.TaxonomyRepository = (*Taxonomy)(nil)

func (t *Taxonomy) ListByPrefix(_ context.Context, flatPrefix string) ([]entity.ATECOCode, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	var out []entity.ATECOCode
	for _, r := range t.Rows {
		if strings.HasPrefix(ateco.StripDots(r.Code), flatPrefix) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *Taxonomy) ListTree(_ context.Context, flatRoot string) ([]entity.ATECOCode, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	if flatRoot == "" {
		return append([]entity.ATECOCode(nil), t.Rows...), nil
	}
	var out []entity.ATECOCode
	for _, r := range t.Rows {
		if strings.HasPrefix(ateco.StripDots(r.Code), flatRoot) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *Taxonomy) GetByCode(_ context.Context, code string) (*entity.ATECOCode, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	for _, r := range t.Rows {
		if r.Code == code {
			c := r
			return &c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (t *Taxonomy) Children(_ context.Context, code string) ([]entity.ATECOCode, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	var out []entity.ATECOCode
	for _, r := range t.Rows {
		if r.ParentCode == code {
			out = append(out, r)
		}
	}
	return out, nil
}

func (t *Taxonomy) List(_ context.Context, f repository.ATECOListFilter) ([]entity.ATECOCode, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	var out []entity.ATECOCode
	for _, r := range t.Rows {
		if f.Level > 0 && r.Level != f.Level {
			continue
		}
		if f.ParentCode != "" && r.ParentCode != f.ParentCode {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(r.Code+" "+r.Name+" "+r.Description), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, r)
	}
	if f.Offset >= len(out) {
		return []entity.ATECOCode{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (t *Taxonomy) Summary(_ context.Context) (*repository.ATECOSummary, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	s := &repository.ATECOSummary{TotalCodes: len(t.Rows)}
	counts := map[int]int{}
	for _, r := range t.Rows {
		counts[r.Level]++
		if r.Level == 1 {
			s.Sections = append(s.Sections, r)
		}
	}
	for level, n := range counts {
		s.ByLevel = append(s.ByLevel, repository.LevelCount{Level: level, Count: n})
	}
	sort.Slice(s.ByLevel, func(i, j int) bool { return s.ByLevel[i].Level < s.ByLevel[j].Level })
	s.TotalLevels = len(s.ByLevel)
	if len(s.ByLevel) > 0 {
		s.MinLevel = s.ByLevel[0].Level
		s.MaxLevel = s.ByLevel[len(s.ByLevel)-1].Level
	}
	return s, nil
}

// Facts FactRepository sobre un slice de filas.
// FailOn hace fallar SumActiveUnits para ese valor; Err hace fallar todo.
// Delay simula latencia y MaxInFlight registra el pico de llamadas simultáneas.
type Facts struct {
	Rows   []entity.Impresa
	Err    error
	FailOn map[string]error
	Delay  time.Duration

	// Lo que devuelven las consultas de presentación.
	ListRows  []repository.FactRow
	Groups    map[repository.GroupKey][]repository.GroupTotal
	Stats     repository.FactStats
	Provinces []repository.ProvinceAggregate

	mu          sync.Mutex
	inFlight    atomic.Int32
	MaxInFlight atomic.Int32
	// Filters filtros recibidos por List/Breakdown/Statistics/MapData, en orden.
	Filters []repository.FactFilter
}

var _ repository.FactRepository = (*Facts)(nil)

func columnValue(r entity.Impresa, column ateco.Column) string {
	switch column {
	case ateco.ColumnSector:
		return r.Sector
	case ateco.ColumnDivision:
		return r.Division
	case ateco.ColumnClass:
		return r.Class
	default:
		return r.Subcategory
	}
}

func (f *Facts) enter() func() {
	n := f.inFlight.Add(1)
	for {
		peak := f.MaxInFlight.Load()
		if n <= peak || f.MaxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *Facts) SumActiveUnits(ctx context.Context, column ateco.Column, value string) (int64, error) {
	defer f.enter()()
	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if f.Err != nil {
		return 0, f.Err
	}
	if err, ok := f.FailOn[value]; ok {
		return 0, err
	}
	var total int64
	for _, r := range f.Rows {
		if columnValue(r, column) == value {
			total += r.ActiveUnits
		}
	}
	return total, nil
}

func (f *Facts) DistinctSubcategories(_ context.Context, flatPrefix string) ([]string, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, r := range f.Rows {
		match := r.Sector == flatPrefix ||
			strings.HasPrefix(r.Division, flatPrefix) ||
			strings.HasPrefix(r.Class, flatPrefix) ||
			strings.HasPrefix(r.Subcategory, flatPrefix)
		if !match {
			continue
		}
		if _, ok := seen[r.Subcategory]; ok {
			continue
		}
		seen[r.Subcategory] = struct{}{}
		out = append(out, r.Subcategory)
	}
	sort.Strings(out)
	return out, nil
}

func (f *Facts) record(filter repository.FactFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Filters = append(f.Filters, filter)
}

// SumMatching suma las filas que pasarían el filtro de sector (igualdad sobre sottocategoria).
func (f *Facts) SumMatching(filter repository.FactFilter) int64 {
	var total int64
	for _, r := range f.Rows {
		if filter.SectorFiltered && !contains(filter.SectorCodes, r.Subcategory) {
			continue
		}
		total += r.ActiveUnits
	}
	return total
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func (f *Facts) List(_ context.Context, filter repository.FactFilter, _ repository.FactListOptions) ([]repository.FactRow, error) {
	f.record(filter)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.ListRows, nil
}

func (f *Facts) Breakdown(_ context.Context, filter repository.FactFilter, by repository.GroupKey, limit int) ([]repository.GroupTotal, error) {
	f.record(filter)
	if f.Err != nil {
		return nil, f.Err
	}
	rows := f.Groups[by]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *Facts) Statistics(_ context.Context, filter repository.FactFilter) (*repository.FactStats, error) {
	f.record(filter)
	if f.Err != nil {
		return nil, f.Err
	}
	s := f.Stats
	return &s, nil
}

func (f *Facts) MapData(_ context.Context, filter repository.FactFilter) ([]repository.ProvinceAggregate, error) {
	f.record(filter)
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Provinces, nil
}

func (f *Facts) Options(_ context.Context, by repository.GroupKey) ([]repository.GroupTotal, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]repository.GroupTotal(nil), f.Groups[by]...), nil
}
