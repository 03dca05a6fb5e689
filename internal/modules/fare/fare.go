package fare

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"railbook/internal/domain"
)

var ErrInvalidClass = fmt.Errorf("%w: unknown seat class", domain.ErrValidation)

// Table maps seat class names to fare multipliers. It is safe for concurrent use
// and can be swapped wholesale when the configuration file changes.
type Table struct {
	mu      sync.RWMutex
	classes map[string]decimal.Decimal
}

func NewTable(classes []domain.SeatClass) (*Table, error) {
	t := &Table{}
	if err := t.Replace(classes); err != nil {
		return nil, err
	}
	return t, nil
}

// Replace validates the new class list and installs it. The old table stays in
// place on error.
func (t *Table) Replace(classes []domain.SeatClass) error {
	if len(classes) == 0 {
		return fmt.Errorf("%w: seat class table is empty", domain.ErrValidation)
	}
	next := make(map[string]decimal.Decimal, len(classes))
	for _, c := range classes {
		name := domain.NormalizeClassName(c.Name)
		if name == "" {
			return fmt.Errorf("%w: seat class name is empty", domain.ErrValidation)
		}
		if !c.Multiplier.IsPositive() {
			return fmt.Errorf("%w: seat class %s multiplier must be > 0", domain.ErrValidation, name)
		}
		if _, dup := next[name]; dup {
			return fmt.Errorf("%w: seat class %s listed twice", domain.ErrValidation, name)
		}
		next[name] = c.Multiplier
	}

	t.mu.Lock()
	t.classes = next
	t.mu.Unlock()
	return nil
}

// Normalize returns the canonical class name, or ErrInvalidClass.
func (t *Table) Normalize(class string) (string, error) {
	name := domain.NormalizeClassName(class)
	t.mu.RLock()
	_, ok := t.classes[name]
	t.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidClass, class)
	}
	return name, nil
}

// Fare is base × multiplier rounded half-up to two decimals.
func (t *Table) Fare(base decimal.Decimal, class string) (decimal.Decimal, error) {
	name := domain.NormalizeClassName(class)
	t.mu.RLock()
	m, ok := t.classes[name]
	t.mu.RUnlock()
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidClass, class)
	}
	return base.Mul(m).Round(2), nil
}

// Classes returns the configured classes sorted by multiplier, then name.
func (t *Table) Classes() []domain.SeatClass {
	t.mu.RLock()
	out := make([]domain.SeatClass, 0, len(t.classes))
	for name, m := range t.classes {
		out = append(out, domain.SeatClass{Name: name, Multiplier: m})
	}
	t.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Multiplier.Cmp(out[j].Multiplier); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Quote prices base in every configured class.
func (t *Table) Quote(base decimal.Decimal) []ClassFare {
	classes := t.Classes()
	out := make([]ClassFare, 0, len(classes))
	for _, c := range classes {
		out = append(out, ClassFare{Class: c.Name, Multiplier: c.Multiplier, Fare: base.Mul(c.Multiplier).Round(2)})
	}
	return out
}

type ClassFare struct {
	Class      string          `json:"class"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Fare       decimal.Decimal `json:"fare"`
}

var defaultTable = mustTable(domain.DefaultSeatClasses())

func mustTable(classes []domain.SeatClass) *Table {
	t, err := NewTable(classes)
	if err != nil {
		panic(err)
	}
	return t
}

func Default() *Table { return defaultTable }

// Fare prices base with the built-in GENERAL/SLEEPER/AC table.
func Fare(base decimal.Decimal, class string) (decimal.Decimal, error) {
	return defaultTable.Fare(base, class)
}
