package cryptoutil

import (
	"strings"
	"testing"
)

func TestSHA256Hex_KnownVector(t *testing.T) {
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := SHA256Hex(nil); got != want {
		t.Fatalf("SHA256Hex(empty) = %q, want %q", got, want)
	}
}

func TestHashEqual(t *testing.T) {
	h := SHA256Hex([]byte("cosmos"))
	cases := []struct {
		name string
		a, b string
		want bool
	}{
		{"same", h, h, true},
		{"case insensitive", h, strings.ToUpper(h), true},
		{"different", h, SHA256Hex([]byte("nebula")), false},
		{"prefix", h, h[:32], false},
		{"empty", "", h, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HashEqual(tc.a, tc.b); got != tc.want {
				t.Fatalf("HashEqual = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsSHA256Hex(t *testing.T) {
	if !IsSHA256Hex(SHA256Hex([]byte("x"))) {
		t.Error("valid digest rejected")
	}
	for _, bad := range []string{"", "abc", strings.Repeat("g", 64), strings.Repeat("a", 63), "../" + strings.Repeat("a", 61)} {
		if IsSHA256Hex(bad) {
			t.Errorf("IsSHA256Hex(%q) = true", bad)
		}
	}
}

func TestShort(t *testing.T) {
	full := SHA256Hex([]byte("starfield"))
	if got := Short(full); got != full[:ShortLen] {
		t.Fatalf("Short = %q", got)
	}
	if got := Short("abc"); got != "abc" {
		t.Fatalf("Short of a short value = %q", got)
	}
}
