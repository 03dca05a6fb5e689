package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SeatClass is one row of the fare table. The set of classes comes from
// configuration, so nothing in the code enumerates them.
type SeatClass struct {
	Name       string          `json:"name" mapstructure:"name"`
	Multiplier decimal.Decimal `json:"multiplier" mapstructure:"multiplier"`
}

func NormalizeClassName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func DefaultSeatClasses() []SeatClass {
	return []SeatClass{
		{Name: "GENERAL", Multiplier: decimal.NewFromInt(1)},
		{Name: "SLEEPER", Multiplier: decimal.RequireFromString("1.5")},
		{Name: "AC", Multiplier: decimal.NewFromInt(2)},
	}
}
