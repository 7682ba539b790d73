package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relrag-api/config"
)

const testKid = "test-key-1"

func newJWKSServer(t *testing.T, pub *rsa.PublicKey) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		set := map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": testKid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(set))
	}))
	t.Cleanup(server.Close)
	return server
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestValidateToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	server := newJWKSServer(t, &key.PublicKey)

	cfg := &config.KeycloakConfig{URL: server.URL, Realm: "test"}
	issuer := cfg.IssuerURL()
	validator := NewValidator(cfg)

	baseClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"sub":                "user-123",
			"iss":                issuer,
			"exp":                time.Now().Add(time.Hour).Unix(),
			"iat":                time.Now().Unix(),
			"email":              "user@example.com",
			"preferred_username": "user123",
			"realm_access":       map[string]any{"roles": []string{"viewer"}},
		}
	}

	t.Run("accepts a valid token", func(t *testing.T) {
		identity, err := validator.ValidateToken("Bearer " + signToken(t, key, testKid, baseClaims()))
		require.NoError(t, err)
		assert.Equal(t, "user-123", identity.Subject)
		assert.Equal(t, "user@example.com", identity.Email)
		assert.Equal(t, "user123", identity.Username)
		assert.Equal(t, []string{"viewer"}, identity.Roles)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		claims := baseClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()
		_, err := validator.ValidateToken(signToken(t, key, testKid, claims))
		assert.Error(t, err)
	})

	t.Run("rejects a wrong issuer", func(t *testing.T) {
		claims := baseClaims()
		claims["iss"] = "https://evil.example.com/realms/test"
		_, err := validator.ValidateToken(signToken(t, key, testKid, claims))
		assert.Error(t, err)
	})

	t.Run("rejects a token signed by another key", func(t *testing.T) {
		otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		_, err = validator.ValidateToken(signToken(t, otherKey, testKid, baseClaims()))
		assert.Error(t, err)
	})

	t.Run("rejects a missing subject", func(t *testing.T) {
		claims := baseClaims()
		delete(claims, "sub")
		_, err := validator.ValidateToken(signToken(t, key, testKid, claims))
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := validator.ValidateToken("Bearer not.a.jwt")
		assert.Error(t, err)
		_, err = validator.ValidateToken("")
		assert.Error(t, err)
	})
}
