package utils

import (
	"testing"
	"time"
)

func TestTokenLifespan(t *testing.T) {
	cases := []struct {
		name string
		env  string
		want time.Duration
	}{
		{"unset falls back to a day", "", 24 * time.Hour},
		{"configured hours", "6", 6 * time.Hour},
		{"garbage falls back", "soon", 24 * time.Hour},
		{"non-positive falls back", "0", 24 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TOKEN_HOUR_LIFESPAN", tc.env)
			if got := TokenLifespan(); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestJwtGenerateAndValidate(t *testing.T) {
	token, err := JwtGenerate(42, "PARENT")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	claims, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("unexpected claims type %T", parsed.Claims)
	}
	if claims.ID != 42 || claims.Role != "PARENT" {
		t.Fatalf("claims round-trip failed: id=%d role=%s", claims.ID, claims.Role)
	}
}
