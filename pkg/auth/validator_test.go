package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type staticKey []byte

func (k staticKey) SigningKey() []byte { return k }

var testKey = staticKey("test-signing-key")

// signToken issues an HS256 token for tests.
func signToken(t *testing.T, key []byte, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func validClaims() Claims {
	return Claims{
		UserID: "user-1",
		Email:  "alice@example.com",
		Role:   "USER",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestValidator_Validate(t *testing.T) {
	v := NewValidator(testKey, 5*time.Second)

	claims, err := v.Validate(signToken(t, testKey, validClaims()))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected userId user-1, got %q", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %q", claims.Email)
	}
	if claims.Role != "USER" {
		t.Errorf("expected role USER, got %q", claims.Role)
	}
}

func TestValidator_Malformed(t *testing.T) {
	v := NewValidator(testKey, 0)

	tests := []struct {
		name  string
		token string
	}{
		{name: "not a jwt", token: "garbage"},
		{name: "two segments", token: "aaaa.bbbb"},
		{name: "bad base64", token: "!!!.!!!.!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token)
			if !errors.Is(err, ErrMalformedToken) {
				t.Errorf("expected ErrMalformedToken, got %v", err)
			}
		})
	}
}

func TestValidator_EmptyToken(t *testing.T) {
	v := NewValidator(testKey, 0)
	_, err := v.Validate("")
	if !errors.Is(err, ErrMissingToken) {
		t.Errorf("expected ErrMissingToken, got %v", err)
	}
}

func TestValidator_InvalidSignature(t *testing.T) {
	v := NewValidator(testKey, 0)

	token := signToken(t, []byte("some-other-key"), validClaims())
	_, err := v.Validate(token)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidator_WrongAlgorithm(t *testing.T) {
	v := NewValidator(testKey, 0)

	// HS512 is rejected even with the right key.
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims())
	signed, err := token.SignedString([]byte(testKey))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	_, err = v.Validate(signed)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidator_Expired(t *testing.T) {
	v := NewValidator(testKey, 0)

	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := v.Validate(signToken(t, testKey, claims))
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestValidator_ClockSkewLeeway(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Second))
	token := signToken(t, testKey, claims)

	// Within leeway: accepted.
	lenient := NewValidator(testKey, 10*time.Second)
	if _, err := lenient.Validate(token); err != nil {
		t.Errorf("expected token within leeway to validate, got %v", err)
	}

	// Without leeway: expired.
	strict := NewValidator(testKey, 0)
	if _, err := strict.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken without leeway, got %v", err)
	}
}

func TestValidator_NotYetValid(t *testing.T) {
	v := NewValidator(testKey, 0)

	claims := validClaims()
	claims.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))

	_, err := v.Validate(signToken(t, testKey, claims))
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken for nbf in the future, got %v", err)
	}
}

func TestValidator_KeyRotation(t *testing.T) {
	rotating := &rotatingKey{key: []byte("old-key")}
	v := NewValidator(rotating, 0)

	oldToken := signToken(t, []byte("old-key"), validClaims())
	if _, err := v.Validate(oldToken); err != nil {
		t.Fatalf("token signed with current key should validate: %v", err)
	}

	rotating.key = []byte("new-key")

	if _, err := v.Validate(oldToken); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected old token to fail after rotation, got %v", err)
	}

	newToken := signToken(t, []byte("new-key"), validClaims())
	if _, err := v.Validate(newToken); err != nil {
		t.Errorf("token signed with rotated key should validate: %v", err)
	}
}

type rotatingKey struct {
	key []byte
}

func (k *rotatingKey) SigningKey() []byte { return k.key }
