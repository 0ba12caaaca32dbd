package jwtutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "hissabbook", "hissabbook-app", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "hissabbook", "hissabbook-app")
	ver.AddKey("k1", &key.PublicKey)

	token, jti, err := gen.Generate("42", "user@example.com", "active", []string{"admin", "user"}, "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := ver.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "active", claims.Status)
	assert.Equal(t, []string{"admin", "user"}, claims.Roles)
	assert.Equal(t, "admin", claims.PrimaryRole)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "hissabbook", "hissabbook-app", "k1", -time.Minute)
	ver := NewVerifier(&key.PublicKey, "hissabbook", "hissabbook-app")

	token, _, err := gen.Generate("42", "user@example.com", "active", nil, "user")
	require.NoError(t, err)

	_, err = ver.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	key := testKey(t)
	gen := NewGenerator(key, "hissabbook", "other-app", "k1", time.Hour)
	ver := NewVerifier(&key.PublicKey, "hissabbook", "hissabbook-app")

	token, _, err := gen.Generate("42", "user@example.com", "active", nil, "user")
	require.NoError(t, err)

	_, err = ver.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	signing := testKey(t)
	other := testKey(t)

	gen := NewGenerator(signing, "hissabbook", "hissabbook-app", "k1", time.Hour)
	ver := NewVerifier(&other.PublicKey, "hissabbook", "hissabbook-app")

	token, _, err := gen.Generate("42", "user@example.com", "active", nil, "user")
	require.NoError(t, err)

	_, err = ver.ParseAndValidate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifierRoutesByKid(t *testing.T) {
	oldKey := testKey(t)
	newKey := testKey(t)

	// Default key no longer matches; only the kid table does.
	ver := NewVerifier(&oldKey.PublicKey, "hissabbook", "hissabbook-app")
	ver.AddKey("k2", &newKey.PublicKey)

	gen := NewGenerator(newKey, "hissabbook", "hissabbook-app", "k2", time.Hour)
	token, _, err := gen.Generate("42", "user@example.com", "active", nil, "user")
	require.NoError(t, err)

	claims, err := ver.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
}

func TestLoadKeysFromPEM(t *testing.T) {
	key := testKey(t)
	dir := t.TempDir()

	privPath := filepath.Join(dir, "jwt_private.pem")
	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0600))

	pubPath := filepath.Join(dir, "jwt_public.pem")
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0600))

	priv, err := LoadRSAPrivateKeyFromPEM(privPath)
	require.NoError(t, err)
	pub, err := LoadRSAPublicKeyFromPEM(pubPath)
	require.NoError(t, err)

	// The loaded pair signs and verifies end to end.
	gen := NewGenerator(priv, "hissabbook", "hissabbook-app", "", time.Hour)
	ver := NewVerifier(pub, "hissabbook", "hissabbook-app")

	token, _, err := gen.Generate("42", "user@example.com", "active", nil, "user")
	require.NoError(t, err)
	_, err = ver.ParseAndValidate(token)
	assert.NoError(t, err)
}

func TestLoadKeysRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a pem"), 0600))

	_, err := LoadRSAPrivateKeyFromPEM(path)
	assert.Error(t, err)
	_, err = LoadRSAPublicKeyFromPEM(path)
	assert.Error(t, err)

	_, err = LoadRSAPrivateKeyFromPEM(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err)
}
