package orders

import "testing"

func TestMoneyRoundTrip(t *testing.T) {
	cases := []struct {
		dollars float64
		cents   Money
	}{
		{0, 0},
		{9.50, 950},
		{3.25, 325},
		{10.005, 1001}, // rounds to nearest cent
		{19.99, 1999},
	}

	for _, tc := range cases {
		if got := NewMoneyFromFloat2(tc.dollars); got != tc.cents {
			t.Errorf("NewMoneyFromFloat2(%v) = %d, want %d", tc.dollars, got, tc.cents)
		}
	}

	if got := Money(2255).ToFloat2(); got != 22.55 {
		t.Errorf("ToFloat2 = %v, want 22.55", got)
	}
}

func TestMoneyAdditionStaysExact(t *testing.T) {
	// the classic float trap: 0.1 + 0.2
	total := NewMoneyFromFloat2(0.1) + NewMoneyFromFloat2(0.2)
	if total != 30 {
		t.Fatalf("total = %d cents, want 30", total)
	}
}
