package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBalancedRejectsTooFewLines(t *testing.T) {
	err := validateBalanced("USD", []PostingLine{{AccountRef: "cash", DebitMinor: 100}})
	assert.Error(t, err)
}

func TestValidateBalancedRejectsBothSidesNonZero(t *testing.T) {
	err := validateBalanced("USD", []PostingLine{
		{AccountRef: "cash", DebitMinor: 100, CreditMinor: 50},
		{AccountRef: "revenue", CreditMinor: 100},
	})
	assert.Error(t, err)
}

func TestValidateBalancedRejectsEmptyAccountRef(t *testing.T) {
	err := validateBalanced("USD", []PostingLine{
		{AccountRef: "", DebitMinor: 100},
		{AccountRef: "revenue", CreditMinor: 100},
	})
	assert.Error(t, err)
}

func TestValidateBalancedRejectsLowercaseCurrency(t *testing.T) {
	err := validateBalanced("usd", []PostingLine{
		{AccountRef: "cash", DebitMinor: 100},
		{AccountRef: "revenue", CreditMinor: 100},
	})
	assert.Error(t, err)
}

func TestValidateBalancedRejectsUnequalSums(t *testing.T) {
	err := validateBalanced("USD", []PostingLine{
		{AccountRef: "cash", DebitMinor: 100},
		{AccountRef: "revenue", CreditMinor: 99},
	})
	assert.Error(t, err)
}

func TestValidateBalancedAcceptsBalancedMultiLineEntry(t *testing.T) {
	err := validateBalanced("USD", []PostingLine{
		{AccountRef: "cash", DebitMinor: 70},
		{AccountRef: "tax_payable", DebitMinor: 30},
		{AccountRef: "revenue", CreditMinor: 100},
	})
	assert.NoError(t, err)
}
