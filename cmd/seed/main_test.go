package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"usersvc/internal/auth"
	"usersvc/internal/db"
	"usersvc/internal/model"
	"usersvc/internal/repository"
	"usersvc/internal/service"
)

func TestParseSeed(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "document", raw: `{"users":[{"name":"Ann"},{"name":"Bob"}]}`, want: 2},
		{name: "bare array", raw: ` [{"name":"Ann"}]`, want: 1},
		{name: "empty document", raw: `{}`, want: 0},
		{name: "garbage", raw: `{"users":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := parseSeed([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, users, tt.want)
		})
	}
}

func TestSeedUsers(t *testing.T) {
	repo := repository.NewUserRepository(db.NewMemoryBackend(), seedHasher(bcrypt.MinCost))
	users := []SeedUser{
		{ID: "u1", Name: "Ann", Email: "a@x.com", Password: "secret"},
		{ID: "u2", Name: "Bob", Email: "a@x.com"},
		{ID: "u3", Email: "c@x.com"},
		{ID: "u1", Name: "Ann again"},
		{ID: "u4", Name: "Dee", Role: "admin"},
	}

	created, skipped, err := seedUsers(context.Background(), repo, users, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 3, skipped)

	dee, err := repo.FindByID(context.Background(), "u4")
	require.NoError(t, err)
	assert.Equal(t, "admin", dee.Role)

	ann, err := repo.FindByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "secret", ann.Password)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[{"name":"Ann"}]`))
	}))
	defer srv.Close()

	body, err := fetch(context.Background(), srv.URL+"/users.json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name":"Ann"}]`, string(body))

	_, err = fetch(context.Background(), srv.URL+"/missing")
	assert.Error(t, err)
}

func TestSeedUsers_StoreExportKeepsPasswords(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewBcryptHasher(auth.WithCost(bcrypt.MinCost))

	exportPath := filepath.Join(t.TempDir(), "users.json")
	source := repository.NewUserRepository(db.NewFileBackend(exportPath), hasher)
	original, err := source.Create(ctx, &model.User{Name: "Ann", Email: "a@x.com", Password: "secret"})
	require.NoError(t, err)

	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	users, err := parseSeed(raw)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, original.Password, users[0].Password)

	target := repository.NewUserRepository(db.NewMemoryBackend(), seedHasher(bcrypt.MinCost))
	created, skipped, err := seedUsers(ctx, target, users, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, skipped)

	seeded, err := target.FindByID(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.Password, seeded.Password)
	assert.True(t, hasher.Verify("secret", seeded.Password))
	assert.False(t, hasher.Verify(original.Password, seeded.Password))

	secret, err := auth.LoadSecret("seed-test-secret")
	require.NoError(t, err)
	authService := service.NewAuthService(target, auth.NewJWTService(secret, time.Hour), hasher, zerolog.Nop())
	token, user, err := authService.Login(ctx, "a@x.com", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, original.ID, user.ID)
}
