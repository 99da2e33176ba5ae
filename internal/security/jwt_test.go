package security

import (
	"strings"
	"testing"
	"time"
)

func TestJWTAccessSignAndParse(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	access, err := mgr.SignAccessToken(42, "acme", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := mgr.ParseAccessToken(access)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Subject != "42" || claims.TokenType != "access" || claims.TenantKey != "acme" {
		t.Fatalf("unexpected access claims: %+v", claims)
	}
	owner, err := claims.OwnerID()
	if err != nil || owner != 42 {
		t.Fatalf("OwnerID() = %d, %v", owner, err)
	}
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	mgr := NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	expired, err := mgr.SignAccessToken(42, "acme", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.ParseAccessToken(expired); err == nil {
		t.Fatal("expected expired token to fail parse")
	}

	other := NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz654321")
	foreign, err := other.SignAccessToken(42, "acme", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.ParseAccessToken(foreign); err == nil {
		t.Fatal("expected token signed with a different secret to fail parse")
	}
}

func FuzzParseAccessTokenRobustness(f *testing.F) {
	mgr := NewJWTManager("iss", "aud", "abcdefghijklmnopqrstuvwxyz123456")
	validAccess, _ := mgr.SignAccessToken(42, "acme", time.Minute)

	f.Add(validAccess)
	f.Add("")
	f.Add("not-a-jwt")
	f.Add("header.payload.signature")
	f.Add(strings.Repeat("a", 8192))

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 16384 {
			raw = raw[:16384]
		}
		claims, err := mgr.ParseAccessToken(raw)
		if err == nil {
			if claims == nil {
				t.Fatal("expected non-nil claims on successful parse")
			}
			if claims.TokenType != "access" {
				t.Fatalf("unexpected token type: %q", claims.TokenType)
			}
			if claims.Subject == "" {
				t.Fatal("expected non-empty subject on successful parse")
			}
		}
	})
}
