package ledger

import (
	"strings"
	"unicode"

	"github.com/cyphera-core/billing-core/internal/apperr"
)

// validateBalanced enforces the balanced-entry contract: at
// least two lines; each line has exactly one of debit/credit non-zero; sum
// debit == sum credit; currency is upper-case ISO-4217; every account_ref
// is non-empty.
func validateBalanced(currency string, lines []PostingLine) error {
	if len(lines) < 2 {
		return apperr.Validation("journal entry requires at least two lines")
	}
	if !isUpperISOCurrency(currency) {
		return apperr.Validation("currency must be upper-case ISO-4217")
	}

	var debits, credits int64
	for _, l := range lines {
		if l.AccountRef == "" {
			return apperr.Validation("line account_ref must not be empty")
		}
		if l.DebitMinor < 0 || l.CreditMinor < 0 {
			return apperr.Validation("line amounts must not be negative")
		}
		if (l.DebitMinor != 0) == (l.CreditMinor != 0) {
			return apperr.Validation("line must have exactly one of debit or credit non-zero")
		}
		debits += l.DebitMinor
		credits += l.CreditMinor
	}
	if debits != credits {
		return apperr.Validation("journal entry is unbalanced: sum(debit) != sum(credit)")
	}
	return nil
}

func isUpperISOCurrency(c string) bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if !unicode.IsUpper(r) || r < 'A' || r > 'Z' {
			return false
		}
	}
	return c == strings.ToUpper(c)
}
