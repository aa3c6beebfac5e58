package domain

import "testing"

func TestCentsUSD(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Cents
		want string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{100, "$1.00"},
		{3500, "$35.00"},
		{10000, "$100.00"},
		{12345, "$123.45"},
		{-2500, "-$25.00"},
	}
	for _, tc := range cases {
		if got := tc.in.USD(); got != tc.want {
			t.Errorf("Cents(%d).USD() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCentsDollars(t *testing.T) {
	t.Parallel()

	if got := Cents(2550).Dollars(); got != 25.5 {
		t.Errorf("Dollars() = %v, want 25.5", got)
	}
}
