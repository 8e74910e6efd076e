package backoff_test

import (
	"testing"
	"time"

	"github.com/Timo4ey/distributed-system-simulation/backoff"
)

func TestConstant_ReturnsFixedDelay(t *testing.T) {
	c := backoff.NewConstant(50 * time.Millisecond)
	for attempt := 1; attempt <= 5; attempt++ {
		if got := c.Delay(attempt); got != 50*time.Millisecond {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, 50*time.Millisecond)
		}
	}
}

func TestExponential_DoublesEachAttempt(t *testing.T) {
	e := backoff.NewExponential(time.Second, time.Hour)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 1 * time.Second},
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := e.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponential_CapsAtMax(t *testing.T) {
	e := backoff.NewExponential(time.Second, 3*time.Second)
	if got := e.Delay(20); got != 3*time.Second {
		t.Errorf("Delay(20) = %v, want %v", got, 3*time.Second)
	}
}

func TestForUnit_StaysWithinUnit(t *testing.T) {
	unit := 100 * time.Millisecond
	s := backoff.ForUnit(unit)
	for attempt := 1; attempt <= 20; attempt++ {
		d := s.Delay(attempt)
		if d < 0 || d > unit {
			t.Fatalf("Delay(%d) = %v, want within [0, %v]", attempt, d, unit)
		}
	}
}
