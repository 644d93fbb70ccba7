package sanitizer

import "testing"

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Asha Rao  ",
			want:  "Asha Rao",
		},
		{
			name:  "multiple spaces between words",
			input: "Asha    Rao",
			want:  "Asha Rao",
		},
		{
			name:  "tabs and newlines",
			input: "Asha\t\nRao",
			want:  "Asha Rao",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve accents",
			input: " José Núñez ",
			want:  "José Núñez",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeName(tt.input)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if again := NormalizeName(got); again != got {
				t.Errorf("NormalizeName is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeCity(t *testing.T) {
	if got := NormalizeCity("  New   Delhi "); got != "New Delhi" {
		t.Errorf("NormalizeCity() = %q, want %q", got, "New Delhi")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: " Rider@Example.COM ", want: "rider@example.com"},
		{input: "rider@example.com", want: "rider@example.com"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEmailsEqual(t *testing.T) {
	if !EmailsEqual("A@b.com", " a@B.com") {
		t.Error("expected case-insensitive, trimmed comparison to match")
	}
	if EmailsEqual("a@b.com", "a@c.com") {
		t.Error("expected different domains to differ")
	}
}

func TestDigitsOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "4111 1111-1111 1111", want: "4111111111111111"},
		{input: "abc", want: ""},
		{input: "١٢٣", want: ""},
	}

	for _, tt := range tests {
		if got := DigitsOnly(tt.input); got != tt.want {
			t.Errorf("DigitsOnly(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
