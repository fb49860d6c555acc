package api

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/catalogforge/enrichment-engine/internal/config"
	"github.com/catalogforge/enrichment-engine/internal/db"
	"github.com/catalogforge/enrichment-engine/internal/workers"
)

func testHandler(secret string) *APIHandler {
	return &APIHandler{
		Deps: &workers.Deps{
			Cfg: &config.Config{
				JWTSecret:        secret,
				JWTRefreshWindow: 7 * 24 * time.Hour,
			},
		},
	}
}

func TestSignAndParseToken_RoundTrips(t *testing.T) {
	h := testHandler("super-secret")
	u := &db.User{ID: "user-1", Email: "ana@example.com", Name: "Ana"}

	token, err := h.signToken(u)
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	claims, err := h.parseToken(token)
	if err != nil {
		t.Fatalf("parseToken error: %v", err)
	}
	if claims.UserID != u.ID || claims.Email != u.Email || claims.Name != u.Name {
		t.Errorf("claims = %+v, want matching user fields", claims)
	}
}

func TestParseToken_WrongSecretRejected(t *testing.T) {
	signer := testHandler("secret-a")
	verifier := testHandler("secret-b")

	token, err := signer.signToken(&db.User{ID: "user-1", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}
	if _, err := verifier.parseToken(token); err == nil {
		t.Error("expected parseToken to reject a token signed with a different secret")
	}
}

func TestParseToken_ExpiredTokenRejected(t *testing.T) {
	h := &APIHandler{
		Deps: &workers.Deps{
			Cfg: &config.Config{JWTSecret: "super-secret", JWTRefreshWindow: -time.Hour},
		},
	}
	token, err := h.signToken(&db.User{ID: "user-1", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}
	if _, err := h.parseToken(token); err == nil {
		t.Error("expected parseToken to reject an already-expired token")
	}
}

func TestHashPassword_VerifiableByBcrypt(t *testing.T) {
	hash, err := hashPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("hashPassword error: %v", err)
	}
	if hash == "" || hash == "correct-horse-battery-staple" {
		t.Error("expected a bcrypt-hashed value distinct from the plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse-battery-staple")); err != nil {
		t.Errorf("bcrypt rejected the hash for its own plaintext: %v", err)
	}
}

func TestNewUserID_ProducesDistinctIDs(t *testing.T) {
	a := newUserID()
	b := newUserID()
	if a == "" || b == "" || a == b {
		t.Errorf("expected two distinct non-empty ids, got %q and %q", a, b)
	}
}
