package normalization

import "testing"

func TestParseInputString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "User@Example.COM", "user@example.com"},
		{"trims whitespace", "  hello  ", "hello"},
		{"both", "\tFoo Bar \n", "foo bar"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseInputString(tc.in); got != tc.want {
				t.Fatalf("ParseInputString(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTrimInputString(t *testing.T) {
	if got := TrimInputString("  Mixed Case  "); got != "Mixed Case" {
		t.Fatalf("TrimInputString preserved case wrong: %q", got)
	}
}
