// Package domain contains core domain types for the HackFund application.
package domain

import "fmt"

// Cents is a monetary amount in US cents. All budget arithmetic is done in
// integer cents so ledger invariants hold exactly.
type Cents int64

// Dollars returns the amount as a float for display-oriented callers.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// USD formats the amount as a dollar string, e.g. "$50.00".
func (c Cents) USD() string {
	sign := ""
	v := c
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
