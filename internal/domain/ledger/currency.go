package ledger

import (
	"github.com/memberhub/backend/internal/domain/member"
	"github.com/memberhub/backend/internal/domain/shared"
)

// Currency is one of the two integer balances an account holds
type Currency string

const (
	CurrencyPoints  Currency = "points"
	CurrencyCredits Currency = "credits"
)

// IsValid checks if the currency value is valid
func (c Currency) IsValid() bool {
	return c == CurrencyPoints || c == CurrencyCredits
}

// ParseCurrency converts a name into a Currency
func ParseCurrency(s string) (Currency, error) {
	c := Currency(s)
	if !c.IsValid() {
		return "", shared.InvalidArgument("Unknown currency: " + s)
	}
	return c, nil
}

// BalanceOf returns the account's balance in currency c
func BalanceOf(a *member.Account, c Currency) int64 {
	if c == CurrencyCredits {
		return a.CreditsBalance
	}
	return a.PointsBalance
}

// Debit removes amount of currency c from a
func Debit(a *member.Account, c Currency, amount int64) error {
	if amount <= 0 {
		return shared.InvalidArgument("Amount must be positive")
	}
	return adjust(a, c, -amount)
}

// Credit adds amount of currency c to a
func Credit(a *member.Account, c Currency, amount int64) error {
	if amount <= 0 {
		return shared.InvalidArgument("Amount must be positive")
	}
	return adjust(a, c, amount)
}

func adjust(a *member.Account, c Currency, delta int64) error {
	switch c {
	case CurrencyPoints:
		return a.AdjustPoints(delta)
	case CurrencyCredits:
		return a.AdjustCredits(delta)
	default:
		return shared.InvalidArgument("Unknown currency: " + string(c))
	}
}
