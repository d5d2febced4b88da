package usecase

import (
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/jfpDev/bankTransations/internal/domain"
)

// SortField names a list ordering.
type SortField string

const (
	SortByDate   SortField = "date"
	SortByAmount SortField = "amount"
	SortByName   SortField = "name"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec selects the field and direction of a projection.
type SortSpec struct {
	Field     SortField
	Direction SortDirection
}

// DefaultSort orders by date, newest first.
func DefaultSort() SortSpec {
	return SortSpec{Field: SortByDate, Direction: SortDesc}
}

// Toggle returns the spec after the user selects f: the active field flips
// direction, any other field starts descending.
func (s SortSpec) Toggle(f SortField) SortSpec {
	if s.Field == f {
		if s.Direction == SortAsc {
			return SortSpec{Field: f, Direction: SortDesc}
		}
		return SortSpec{Field: f, Direction: SortAsc}
	}
	return SortSpec{Field: f, Direction: SortDesc}
}

// Project filters records by term and orders them by spec. The input is not
// modified. Ties keep their input order ascending and the reverse of it
// descending, so flipping the direction inverts the output exactly. An unknown
// field keeps the filtered input order.
func Project(records []domain.Transaction, term string, spec SortSpec) []domain.Transaction {
	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]domain.Transaction, 0, len(records))
	for _, r := range records {
		if needle == "" ||
			strings.Contains(fold.String(r.CounterpartyName), needle) ||
			strings.Contains(fold.String(r.BusinessCategory), needle) {
			out = append(out, r)
		}
	}

	cmp := comparator(spec.Field, fold)
	if cmp == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return cmp(out[i], out[j]) < 0
	})
	if spec.Direction != SortAsc {
		slices.Reverse(out)
	}

	return out
}

func comparator(f SortField, fold cases.Caser) func(a, b domain.Transaction) int {
	switch f {
	case SortByDate:
		return func(a, b domain.Transaction) int {
			return a.TransactionDate.Compare(b.TransactionDate)
		}
	case SortByAmount:
		return func(a, b domain.Transaction) int {
			switch {
			case a.Amount < b.Amount:
				return -1
			case a.Amount > b.Amount:
				return 1
			}
			return 0
		}
	case SortByName:
		return func(a, b domain.Transaction) int {
			return strings.Compare(fold.String(a.CounterpartyName), fold.String(b.CounterpartyName))
		}
	}
	return nil
}

// ListView keeps the search term and sort selection of one list consumer.
type ListView struct {
	mu   sync.Mutex
	term string
	sort SortSpec
}

// NewListView creates a ListView with the default sort.
func NewListView() *ListView {
	return &ListView{sort: DefaultSort()}
}

// SetSearch replaces the search term.
func (v *ListView) SetSearch(term string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.term = term
}

// SetSort replaces the sort selection.
func (v *ListView) SetSort(spec SortSpec) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = spec
}

// ToggleSort applies SortSpec.Toggle to the current selection.
func (v *ListView) ToggleSort(f SortField) SortSpec {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sort = v.sort.Toggle(f)
	return v.sort
}

// Sort returns the current sort selection.
func (v *ListView) Sort() SortSpec {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sort
}

// Render projects records with the current term and sort.
func (v *ListView) Render(records []domain.Transaction) []domain.Transaction {
	v.mu.Lock()
	term, spec := v.term, v.sort
	v.mu.Unlock()
	return Project(records, term, spec)
}
