package cli

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "Compline", n: 10, want: "Compline"},
		{in: "Compline", n: 8, want: "Compline"},
		{in: "Morning Praise", n: 10, want: "Morning..."},
		{in: "Ångelus Domini", n: 8, want: "Ångel..."},
		{in: "Compline", n: 3, want: "Com"},
		{in: "Compline", n: 1, want: "C"},
		{in: "Compline", n: 0, want: ""},
		{in: "Compline", n: -1, want: ""},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
