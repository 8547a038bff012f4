package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"usersvc/internal/auth"
	"usersvc/internal/config"
	"usersvc/internal/db"
	apperrors "usersvc/internal/errors"
	"usersvc/internal/logger"
	"usersvc/internal/model"
	"usersvc/internal/repository"
)

const fetchTimeout = 30 * time.Second

// SeedUser is one entry of a seed document. Passwords may be plaintext, which
// is hashed on the way in, or bcrypt hashes from an exported store, which are
// kept as they are.
type SeedUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func main() {
	file := flag.String("file", "", "path to a JSON seed document")
	url := flag.String("url", "", "URL of a JSON seed document")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, "user-seed")

	if (*file == "") == (*url == "") {
		log.Fatal().Msg("exactly one of -file or -url is required")
	}

	ctx := context.Background()

	var raw []byte
	if *file != "" {
		log.Info().Str("file", *file).Msg("reading seed users")
		raw, err = os.ReadFile(*file)
	} else {
		log.Info().Str("url", *url).Msg("fetching seed users")
		raw, err = fetch(ctx, *url)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed document")
	}

	users, err := parseSeed(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse seed document")
	}
	log.Info().Int("count", len(users)).Msg("parsed seed users")

	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open user store")
	}
	defer closeBackend()

	repo := repository.NewUserRepository(backend, seedHasher(cfg.BcryptCost), repository.WithLogger(logger.Component(log, "repository")))

	created, skipped, err := seedUsers(ctx, repo, users, log)
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("total", created+skipped).
		Msg("seed completed")
}

// fetch downloads a seed document.
func fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch seed document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("seed source returned status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// parseSeed accepts the store's own {"users": [...]} layout or a bare array.
func parseSeed(raw []byte) ([]SeedUser, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var users []SeedUser
		if err := json.Unmarshal(raw, &users); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
		return users, nil
	}

	var doc struct {
		Users []SeedUser `json:"users"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return doc.Users, nil
}

// seedHasher hashes plaintext passwords and keeps bcrypt hashes from an
// exported store, so exported users can still log in after a reseed.
func seedHasher(cost int) auth.Hasher {
	return auth.KeepHashes(auth.NewBcryptHasher(auth.WithCost(cost)))
}

// seedUsers creates each user, skipping entries that already exist or fail
// validation. Any other error aborts the run.
func seedUsers(ctx context.Context, repo repository.UserRepository, users []SeedUser, log zerolog.Logger) (created, skipped int, err error) {
	for i, u := range users {
		_, err := repo.Create(ctx, &model.User{
			ID:       u.ID,
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Role:     u.Role,
		})
		switch {
		case err == nil:
			created++
		case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrValidation):
			log.Warn().Err(err).Int("index", i).Msg("skipping seed user")
			skipped++
		default:
			return created, skipped, fmt.Errorf("seed user %d: %w", i, err)
		}
	}
	return created, skipped, nil
}

func openBackend(cfg *config.Config) (db.Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, func() {}, fmt.Errorf("database init: %w", err)
		}
		backend, err := db.NewMySQLBackend(gormDB)
		if err != nil {
			return nil, func() {}, fmt.Errorf("auto-migrate: %w", err)
		}
		return backend, func() {
			if sqlDB, err := gormDB.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}, nil
	case config.StoreMemory:
		return nil, func() {}, errors.New("STORE_DRIVER=memory cannot be seeded; use file or mysql")
	default:
		return db.NewFileBackend(cfg.UsersFile), func() {}, nil
	}
}
