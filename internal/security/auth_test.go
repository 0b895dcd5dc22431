package security

import (
	"net/http/httptest"
	"testing"
)

func TestBearerAuth(t *testing.T) {
	auth := BearerAuth{Enabled: true, Token: "secret"}

	cases := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", "Bearer secret", true},
		{"padded", "  Bearer secret  ", true},
		{"wrong token", "Bearer other", false},
		{"wrong length", "Bearer secrets", false},
		{"missing prefix", "secret", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/", nil)
		if tc.header != "" {
			r.Header.Set("Authorization", tc.header)
		}
		if got := auth.Authorize(r); got != tc.want {
			t.Fatalf("%s: authorize = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestBearerAuthDisabled(t *testing.T) {
	auth := BearerAuth{Enabled: false}
	r := httptest.NewRequest("GET", "/", nil)
	if !auth.Authorize(r) {
		t.Fatal("disabled auth must allow everything")
	}
}
