package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "usersvc/internal/errors"
	"usersvc/internal/model"
)

func testUser() *model.User {
	return &model.User{
		ID:    "user_1700000000000",
		Name:  "Ann",
		Email: "a@x.com",
		Role:  "admin",
	}
}

func newTestService(t *testing.T, raw string, ttl time.Duration) *JWTService {
	t.Helper()
	secret, err := LoadSecret(raw)
	require.NoError(t, err)
	return NewJWTService(secret, ttl)
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)
	user := testUser()

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, user.Name, claims.Name)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.RegisteredClaims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_DefaultTTL(t *testing.T) {
	svc := newTestService(t, "test-secret", 0)
	assert.Equal(t, DefaultTokenTTL, svc.TTL())

	token, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTService_RoleDefaultsToUser(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)
	user := testUser()
	user.Role = ""

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRole, claims.Role)
}

func TestJWTService_PayloadKeepsBothIDFields(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)

	token, err := svc.GenerateToken(testUser())
	require.NoError(t, err)

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.Equal(t, "user_1700000000000", raw["id"])
	assert.Equal(t, "user_1700000000000", raw["userId"])
	assert.Contains(t, raw, "exp")
	assert.Contains(t, raw, "jti")
}

func TestJWTService_ValidateToken_Failures(t *testing.T) {
	svc := newTestService(t, "right-secret", time.Hour)
	user := testUser()

	expired, err := svc.GenerateTokenWithTTL(user, -time.Hour)
	require.NoError(t, err)

	forged, err := newTestService(t, "wrong-secret", time.Hour).GenerateToken(user)
	require.NoError(t, err)

	forgedExpired, err := newTestService(t, "wrong-secret", time.Hour).GenerateTokenWithTTL(user, -time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		token      string
		wantReason error
	}{
		{name: "expired", token: expired, wantReason: apperrors.ErrTokenExpired},
		{name: "wrong secret", token: forged, wantReason: apperrors.ErrTokenSignatureInvalid},
		{name: "wrong secret and expired", token: forgedExpired, wantReason: apperrors.ErrTokenSignatureInvalid},
		{name: "tampered payload", token: tamperRole(t, svc, user, "admin-forever"), wantReason: apperrors.ErrTokenSignatureInvalid},
		{name: "garbage", token: "not.a.jwt", wantReason: apperrors.ErrTokenMalformed},
		{name: "empty", token: "", wantReason: apperrors.ErrTokenMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
			assert.ErrorIs(t, err, tt.wantReason)
		})
	}
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"u1","userId":"u1","role":"admin"}`))

	_, err := svc.ValidateToken(header + "." + payload + ".")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestJWTService_DecodeToken(t *testing.T) {
	svc := newTestService(t, "test-secret", time.Hour)
	user := testUser()

	expired, err := svc.GenerateTokenWithTTL(user, -time.Hour)
	require.NoError(t, err)

	claims := svc.DecodeToken(expired)
	require.NotNil(t, claims)
	assert.Equal(t, user.ID, claims.ID)
	assert.Equal(t, user.ID, claims.UserID)

	tampered := tamperRole(t, svc, user, "root")
	claims = svc.DecodeToken(tampered)
	require.NotNil(t, claims)
	assert.Equal(t, "root", claims.Role)

	assert.Nil(t, svc.DecodeToken("garbage"))
}

func TestClaims_LookupID(t *testing.T) {
	assert.Equal(t, "a", (&Claims{ID: "a", UserID: "b"}).LookupID())
	assert.Equal(t, "b", (&Claims{UserID: "b"}).LookupID())
	assert.Empty(t, (&Claims{}).LookupID())
}

// tamperRole rewrites the payload of a valid token while keeping the original
// signature.
func tamperRole(t *testing.T, svc *JWTService, user *model.User, role string) string {
	t.Helper()

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	parts := strings.Split(token, ".")

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	raw["role"] = role

	modified, err := json.Marshal(raw)
	require.NoError(t, err)

	parts[1] = base64.RawURLEncoding.EncodeToString(modified)
	return strings.Join(parts, ".")
}
