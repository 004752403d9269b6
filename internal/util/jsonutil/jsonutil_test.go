package jsonutil

import (
	"strings"
	"testing"
)

func TestMarshalNoEscapeKeepsHTMLChars(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"code": "if a<b && c>d {}"})
	if err != nil {
		t.Fatalf("MarshalNoEscape() error = %v", err)
	}
	if !strings.Contains(string(out), "if a<b && c>d {}") {
		t.Fatalf("MarshalNoEscape() escaped HTML chars: %s", out)
	}
	if strings.Contains(string(out), `\u003c`) {
		t.Fatalf("MarshalNoEscape() produced unicode escapes: %s", out)
	}
	if strings.HasSuffix(string(out), "\n") {
		t.Fatalf("MarshalNoEscape() kept trailing newline")
	}
}

func TestMarshalNoEscapeIndent(t *testing.T) {
	out, err := MarshalNoEscapeIndent(map[string]string{"k": "a<b"}, "", "  ")
	if err != nil {
		t.Fatalf("MarshalNoEscapeIndent() error = %v", err)
	}
	if !strings.Contains(string(out), "\n  \"k\"") {
		t.Fatalf("MarshalNoEscapeIndent() not indented: %s", out)
	}
	if !strings.Contains(string(out), "a<b") {
		t.Fatalf("MarshalNoEscapeIndent() escaped HTML chars: %s", out)
	}
}

func TestUnwrapQuoted(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"double encoded object", `"{\"summary\":\"ok\"}"`, `{"summary":"ok"}`},
		{"plain object untouched", `{"summary":"ok"}`, `{"summary":"ok"}`},
		{"array untouched", `[1,2,3]`, `[1,2,3]`},
		{"bare text untouched", `not json`, `not json`},
		{"unterminated string untouched", `"oops`, `"oops`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UnwrapQuoted([]byte(tc.in))
			if string(got) != tc.want {
				t.Fatalf("UnwrapQuoted(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
