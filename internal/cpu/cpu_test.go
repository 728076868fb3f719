package cpu

import "testing"

func TestPhysicalIsPositive(t *testing.T) {
	if n := (Physical{}).Cores(); n < 1 {
		t.Errorf("expected at least 1 core, got %d", n)
	}
}

func TestFixed(t *testing.T) {
	tests := []struct {
		in   Fixed
		want int
	}{
		{Fixed(4), 4},
		{Fixed(1), 1},
		{Fixed(0), 1},
		{Fixed(-2), 1},
	}

	for _, tt := range tests {
		if got := tt.in.Cores(); got != tt.want {
			t.Errorf("Fixed(%d).Cores() = %d, want %d", int(tt.in), got, tt.want)
		}
	}
}
