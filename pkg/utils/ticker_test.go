package utils

import "testing"

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{" msft ", "MSFT"},
		{"BRK.A", "BRK-A"},
		{"brk.b", "BRK-B"},
		{"BRK-B", "BRK-B"},
		{"$TSLA", "TSLA"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := NormalizeTicker(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, result, tt.expected)
			}
			if again := NormalizeTicker(result); again != result {
				t.Errorf("NormalizeTicker not idempotent: %q -> %q", result, again)
			}
		})
	}
}

func TestNormalizeTickerCaseInsensitive(t *testing.T) {
	if NormalizeTicker("Brk.A") != NormalizeTicker("bRK.a") {
		t.Error("NormalizeTicker should not depend on input case")
	}
}

func TestIsCIK(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"320193", true},
		{"0000320193", true},
		{"AAPL", false},
		{"", false},
		{"12345678901", false},
		{"32-0193", false},
	}
	for _, tt := range tests {
		if got := IsCIK(tt.input); got != tt.expected {
			t.Errorf("IsCIK(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestPadCIK(t *testing.T) {
	if got := PadCIK("320193"); got != "0000320193" {
		t.Errorf("PadCIK = %q, want 0000320193", got)
	}
	if got := PadCIK("0000320193"); got != "0000320193" {
		t.Errorf("PadCIK on padded input = %q", got)
	}
}
