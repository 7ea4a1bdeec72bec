package jwt

import (
	"testing"

	types "dashboard-cargo/internal/common/type"

	"github.com/google/uuid"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")
	user := types.UserWithAuth{
		ID:       uuid.New(),
		Email:    "ops@cargo.id",
		UserType: "corporate",
	}

	token, exp := GenerateToken(user)
	if token == "" || exp == nil {
		t.Fatalf("expected a signed token")
	}

	got, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if got.ID != user.ID || got.UserType != "corporate" {
		t.Fatalf("unexpected claims %+v", got)
	}
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	SetSecret("first")
	token, _ := GenerateToken(types.UserWithAuth{ID: uuid.New(), Email: "ops@cargo.id"})

	SetSecret("second")
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expected a signature error")
	}
}

func TestTokenWithInvalidClaimsIsRejected(t *testing.T) {
	SetSecret("test-secret")
	token, _ := GenerateToken(types.UserWithAuth{ID: uuid.New(), Email: "not-an-email"})
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expected claim validation to fail")
	}
}

func TestMissingSecretUsesRandomProcessKey(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	SetSecret("")
	t.Cleanup(func() { SetSecret("test-secret") })

	first := getJWTSecret()
	if len(first) < 32 || string(first) != string(getJWTSecret()) {
		t.Fatalf("expected one stable random key, got %q", first)
	}

	token, _ := GenerateToken(types.UserWithAuth{ID: uuid.New(), Email: "ops@cargo.id"})
	if _, err := ValidateToken(token); err != nil {
		t.Fatalf("token signed with the process key must validate: %v", err)
	}
}
