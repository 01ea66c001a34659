package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "trims", input: "  camiseta  ", max: 20, want: "camiseta"},
		{name: "collapses whitespace", input: "Ana \t  Souza\n", max: 0, want: "Ana Souza"},
		{name: "caps by runes", input: "João Conceição", max: 4, want: "João"},
		{name: "drops trailing space after cut", input: "ab cd", max: 3, want: "ab"},
		{name: "empty", input: "   ", max: 5, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeString(tc.input, tc.max); got != tc.want {
				t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.max, got, tc.want)
			}
		})
	}
}
