package fare

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbook/internal/domain"
)

func TestFare_DefaultClasses(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		class string
		want  string
	}{
		{"general", "850", "GENERAL", "850"},
		{"sleeper lower case", "850", "sleeper", "1275"},
		{"ac", "1450", "AC", "2900"},
		{"half-up rounding", "100.005", "GENERAL", "100.01"},
		{"sleeper rounding", "333.33", "SLEEPER", "500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fare(decimal.RequireFromString(tt.base), tt.class)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestFare_Deterministic(t *testing.T) {
	base := decimal.RequireFromString("1299.99")
	first, err := Fare(base, "SLEEPER")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := Fare(base, "SLEEPER")
		require.NoError(t, err)
		assert.True(t, first.Equal(again))
	}
}

func TestFare_UnknownClass(t *testing.T) {
	_, err := Fare(decimal.NewFromInt(100), "FIRST")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidClass))
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestTable_ReplaceKeepsOldOnError(t *testing.T) {
	table, err := NewTable(domain.DefaultSeatClasses())
	require.NoError(t, err)

	err = table.Replace([]domain.SeatClass{{Name: "AC", Multiplier: decimal.Zero}})
	require.Error(t, err)

	_, err = table.Normalize("ac")
	require.NoError(t, err)
	assert.Len(t, table.Classes(), 3)
}

func TestTable_ReplaceHotSwap(t *testing.T) {
	table, err := NewTable(domain.DefaultSeatClasses())
	require.NoError(t, err)

	require.NoError(t, table.Replace([]domain.SeatClass{
		{Name: "chair", Multiplier: decimal.RequireFromString("1.2")},
	}))

	got, err := table.Fare(decimal.NewFromInt(500), "Chair")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(600).Equal(got))

	_, err = table.Fare(decimal.NewFromInt(500), "GENERAL")
	assert.ErrorIs(t, err, ErrInvalidClass)
}

func TestTable_ConcurrentReadsDuringReplace(t *testing.T) {
	table, err := NewTable(domain.DefaultSeatClasses())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = table.Fare(decimal.NewFromInt(100), "AC")
				_ = table.Classes()
			}
		}()
	}
	for j := 0; j < 20; j++ {
		require.NoError(t, table.Replace(domain.DefaultSeatClasses()))
	}
	wg.Wait()
}

func TestTable_QuoteOrder(t *testing.T) {
	q := Default().Quote(decimal.NewFromInt(900))
	require.Len(t, q, 3)
	assert.Equal(t, "GENERAL", q[0].Class)
	assert.Equal(t, "SLEEPER", q[1].Class)
	assert.Equal(t, "AC", q[2].Class)
	assert.True(t, decimal.NewFromInt(1800).Equal(q[2].Fare))
}
