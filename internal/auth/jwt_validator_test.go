package auth

import (
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

func buildToken(t *testing.T, issuer, audience string, issued time.Time, ttl time.Duration) jwt.Token {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject("user-1").
		Issuer(issuer).
		Audience([]string{audience}).
		IssuedAt(issued).
		Expiration(issued.Add(ttl)).
		Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	return tok
}

func TestValidateAcceptsMatchingToken(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "backend-mose", Audience: "mose-storefront", Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-mose", "mose-storefront", now, time.Hour)
	if err := v.Validate(tok, jwa.HS256, now); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateRejectsWrongIssuer(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Issuer: "backend-mose", Algorithm: jwa.HS256}
	tok := buildToken(t, "someone-else", "mose-storefront", now, time.Hour)
	if err := v.Validate(tok, jwa.HS256, now); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Audience: "mose-storefront", Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-mose", "other-frontend", now, time.Hour)
	if err := v.Validate(tok, jwa.HS256, now); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	v := TokenValidator{Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-mose", "mose-storefront", issued, time.Hour)
	if err := v.Validate(tok, jwa.HS256, time.Now()); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestValidateAllowsSkew(t *testing.T) {
	issued := time.Now().Add(-65 * time.Minute)
	v := TokenValidator{Algorithm: jwa.HS256, ClockSkew: 10 * time.Minute}
	tok := buildToken(t, "backend-mose", "mose-storefront", issued, time.Hour)
	if err := v.Validate(tok, jwa.HS256, time.Now()); err != nil {
		t.Fatalf("expected skew allowance to accept token: %v", err)
	}
}

func TestValidateRejectsAlgorithmMismatch(t *testing.T) {
	now := time.Now()
	v := TokenValidator{Algorithm: jwa.HS256}
	tok := buildToken(t, "backend-mose", "mose-storefront", now, time.Hour)
	if err := v.Validate(tok, jwa.RS256, now); err == nil {
		t.Fatal("expected algorithm mismatch to fail")
	}
}
