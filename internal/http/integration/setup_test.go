package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/db"
	apphttp "github.com/geocoder89/taskhub/internal/http"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/geocoder89/taskhub/internal/repo/postgres"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() config.Config {
	return config.Config{
		Env:                "test",
		StoreDriver:        config.StoreDriverMemory,
		JWTSecret:          "test-secret-key",
		JWTTTLMinutes:      60,
		StatsCacheTTL:      time.Minute,
		AdminEmail:         "admin@example.com",
		AdminPassword:      "adminpass",
		AdminName:          "Test Admin",
		AdminRole:          "admin",
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		AuthRateLimit:      0,
		AuthRateWindow:     time.Minute,
		MaxBodyBytes:       1 << 20,
	}
}

// setupRouter builds the full API over the in-memory store, or over
// Postgres when TEST_DB_DSN is set.
func setupRouter(t *testing.T, cfg config.Config) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := context.Background()

	var (
		users service.UserStore
		tasks service.TaskStore
	)

	if dsn := os.Getenv("TEST_DB_DSN"); dsn != "" {
		pool, err := db.NewPool(ctx, dsn, db.PoolOptions{MaxConns: 4})
		if err != nil {
			t.Fatalf("failed to create pgx pool: %v", err)
		}
		t.Cleanup(pool.Close)

		if err := db.Migrate(ctx, pool, logger); err != nil {
			t.Fatalf("migrate: %v", err)
		}
		if _, err := pool.Exec(ctx, `TRUNCATE tasks, users CASCADE`); err != nil {
			t.Fatalf("failed to truncate tables: %v", err)
		}

		users = postgres.NewUsersRepo(pool, nil)
		tasks = postgres.NewTasksRepo(pool, nil)
	} else {
		users = memory.NewUsersRepo()
		tasks = memory.NewTasksRepo()
	}

	hasher := security.NewHasher(bcrypt.MinCost)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())
	statsCache := cache.New(cfg.StatsCacheTTL)

	if err := db.EnsureAdminUser(ctx, users, hasher, cfg, logger); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	return apphttp.NewRouter(logger, apphttp.Deps{
		Config: cfg,
		Auth:   service.NewAuthService(users, tokens, hasher, nil, logger),
		Tasks:  service.NewTaskService(tasks, users, statsCache, nil, logger),
		Users:  service.NewUserService(users, tasks, statsCache, nil, logger),
		Tokens: tokens,
	})
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  *struct {
		Code      string `json:"code"`
		RequestID string `json:"requestId"`
	} `json:"errors"`
}

func doRequest(router http.Handler, method, path, body, token string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	return w
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, want int) envelope {
	t.Helper()

	if w.Code != want {
		t.Fatalf("got status %d, want %d, body=%s", w.Code, want, w.Body.String())
	}

	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v, body=%s", err, w.Body.String())
		}
	}
	return env
}

func mustData[T any](t *testing.T, env envelope, out *T) {
	t.Helper()

	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to unmarshal data: %v, data=%s", err, string(env.Data))
	}
}

type authData struct {
	User struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
	Token string `json:"token"`
}

func register(t *testing.T, router http.Handler, name, email string) authData {
	t.Helper()

	body := `{"name":"` + name + `","email":"` + email + `","password":"secret123"}`
	env := mustStatus(t, doRequest(router, http.MethodPost, "/api/auth/register", body, ""), http.StatusCreated)

	var out authData
	mustData(t, env, &out)
	if out.Token == "" {
		t.Fatalf("register expected a token")
	}
	return out
}

func login(t *testing.T, router http.Handler, email, password string) authData {
	t.Helper()

	body := `{"email":"` + email + `","password":"` + password + `"}`
	env := mustStatus(t, doRequest(router, http.MethodPost, "/api/auth/login", body, ""), http.StatusOK)

	var out authData
	mustData(t, env, &out)
	return out
}
