package models

import (
	"fmt"

	"github.com/google/uuid"
)

// GenerateInternalToken mints the unguessable session key.
func GenerateInternalToken() string {
	return uuid.NewString()
}

// CentsToUnits converts the provider's smallest-unit amounts to whole ledger
// units, truncating toward zero. One unit is 100 cents.
func CentsToUnits(cents int64) int64 {
	return cents / 100
}

// FormatCurrency renders a cent amount for the operator dashboard.
func FormatCurrency(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
