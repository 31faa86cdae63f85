package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim spaces", input: "  Maria Rossi  ", want: "Maria Rossi"},
		{name: "multiple spaces between words", input: "Maria    Rossi", want: "Maria Rossi"},
		{name: "tabs and newlines", input: "Maria\t\nRossi", want: "Maria Rossi"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   \t\n  ", want: ""},
		{name: "preserve special characters", input: " Renée D'Amico ", want: "Renée D'Amico"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeName(tt.input); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Maria.Rossi@Example.COM "); got != "maria.rossi@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestNormalizeNotes(t *testing.T) {
	got := NormalizeNotes("  window seat\nplease\x00\x07  ")
	if got != "window seat\nplease" {
		t.Errorf("NormalizeNotes() = %q", got)
	}
}

func TestNormalizeTableNumber(t *testing.T) {
	if got := NormalizeTableNumber(" t12 "); got != "T12" {
		t.Errorf("NormalizeTableNumber() = %q", got)
	}
}
