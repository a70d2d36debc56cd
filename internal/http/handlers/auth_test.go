package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/expensehub/internal/auth"
	"github.com/geocoder89/expensehub/internal/config"
	"github.com/geocoder89/expensehub/internal/domain/user"
	"github.com/geocoder89/expensehub/internal/http/handlers"
	"github.com/geocoder89/expensehub/internal/http/middlewares"
	"github.com/geocoder89/expensehub/internal/repo/postgres"
	"github.com/geocoder89/expensehub/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeTx satisfies pgx.Tx for handler tests; every statement succeeds.

type fakeTx struct {
	pgx.Tx

	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

// fakeUserStore covers both UserReader and UserWriter.

type fakeUserStore struct {
	createFn     func(ctx context.Context, name, email, passwordHash string) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	getByIDFn    func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserStore) Create(ctx context.Context, name, email, passwordHash string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, email, passwordHash)
	}

	return user.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash}, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(ctx context.Context, id string) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, user.ErrNotFound
}

// fakeRefreshStore keeps rows in a map so rotation can be asserted.

type fakeRefreshStore struct {
	rows map[string]postgres.RefreshTokenRow
	tx   *fakeTx
}

func newFakeRefreshStore() *fakeRefreshStore {
	return &fakeRefreshStore{rows: map[string]postgres.RefreshTokenRow{}, tx: &fakeTx{}}
}

func (f *fakeRefreshStore) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return f.tx, nil
}

func (f *fakeRefreshStore) Create(ctx context.Context, tx pgx.Tx, row postgres.RefreshTokenRow) error {
	f.rows[row.ID] = row
	return nil
}

func (f *fakeRefreshStore) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (postgres.RefreshTokenRow, error) {
	row, ok := f.rows[id]
	if !ok {
		return postgres.RefreshTokenRow{}, postgres.ErrRefreshTokenNotFound
	}
	return row, nil
}

func (f *fakeRefreshStore) Revoke(ctx context.Context, tx pgx.Tx, id string, replacedBy *string) error {
	row, ok := f.rows[id]
	if !ok {
		return postgres.ErrRefreshTokenNotFound
	}

	now := time.Now().UTC()
	row.RevokedAt = &now
	row.ReplacedBy = replacedBy
	f.rows[id] = row
	return nil
}

func (f *fakeRefreshStore) RevokeAllForUser(ctx context.Context, tx pgx.Tx, userID string) error {
	now := time.Now().UTC()
	for id, row := range f.rows {
		if row.UserID == userID && row.RevokedAt == nil {
			row.RevokedAt = &now
			f.rows[id] = row
		}
	}
	return nil
}

func newAuthHandler(users *fakeUserStore, refresh *fakeRefreshStore) (*handlers.AuthHandler, *auth.Manager) {
	jwtManager := auth.NewManager("test-secret", 15*time.Minute, 7*24*time.Hour)
	cfg := config.Config{Env: "test"}

	return handlers.NewAuthHandler(users, users, jwtManager, refresh, cfg), jwtManager
}

func authRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		usersSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"name": "Ada", "email": "ada@example.com", "password": "hunter22"}`,
			usersSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					if passwordHash == "hunter22" {
						return user.User{}, errors.New("password stored in clear")
					}
					return user.User{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: passwordHash}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "short_password",
			body:           `{"name": "Ada", "email": "ada@example.com", "password": "abc"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "bad_email",
			body:           `{"name": "Ada", "email": "not-an-email", "password": "hunter22"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "duplicate_email",
			body: `{"name": "Ada", "email": "ada@example.com", "password": "hunter22"}`,
			usersSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					return user.User{}, user.ErrEmailInUse
				}
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "store_error",
			body: `{"name": "Ada", "email": "ada@example.com", "password": "hunter22"}`,
			usersSetup: func(f *fakeUserStore) {
				f.createFn = func(ctx context.Context, name, email, passwordHash string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{}
			if tt.usersSetup != nil {
				tt.usersSetup(users)
			}

			refresh := newFakeRefreshStore()
			h, _ := newAuthHandler(users, refresh)
			r := authRouter(http.MethodPost, "/auth/register", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusCreated {
				resp := decodeResponse(t, w)
				data, ok := resp.Data.(map[string]interface{})
				if !ok {
					t.Fatalf("expected an object payload, body=%s", w.Body.String())
				}
				if token, _ := data["token"].(string); token == "" {
					t.Fatalf("expected an access token in the response, body=%s", w.Body.String())
				}
				if len(refresh.rows) != 1 {
					t.Fatalf("expected one stored refresh token, got %d", len(refresh.rows))
				}

				cookies := w.Result().Cookies()
				if len(cookies) != 1 || cookies[0].Name != "refresh_token" || !cookies[0].HttpOnly {
					t.Fatalf("expected an HttpOnly refresh cookie, got %+v", cookies)
				}
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	existing := user.User{
		ID:           uuid.NewString(),
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: hash,
	}

	tests := []struct {
		name           string
		body           string
		usersSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email": "ada@example.com", "password": "hunter22"}`,
			usersSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return existing, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "wrong_password",
			body: `{"email": "ada@example.com", "password": "wrong-password"}`,
			usersSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return existing, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "unknown_email",
			body:           `{"email": "nobody@example.com", "password": "hunter22"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "missing_password",
			body:           `{"email": "ada@example.com"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{}
			if tt.usersSetup != nil {
				tt.usersSetup(users)
			}

			h, _ := newAuthHandler(users, newFakeRefreshStore())
			r := authRouter(http.MethodPost, "/auth/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestProfileHandler(t *testing.T) {
	existing := user.User{ID: testUserID, Name: "Ada", Email: "ada@example.com", PasswordHash: "x"}

	users := &fakeUserStore{
		getByIDFn: func(ctx context.Context, id string) (user.User, error) {
			if id != testUserID {
				return user.User{}, user.ErrNotFound
			}
			return existing, nil
		},
	}

	h, _ := newAuthHandler(users, newFakeRefreshStore())

	r := gin.New()
	r.Use(func(c *gin.Context) {
		middlewares.SetIdentity(c, testUserID, existing.Email)
		c.Next()
	})
	r.GET("/auth/profile", h.Profile)

	req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	body := w.Body.String()
	if !bytes.Contains([]byte(body), []byte(`"ada@example.com"`)) {
		t.Fatalf("profile should include the email, body=%s", body)
	}
	if bytes.Contains([]byte(body), []byte("passwordHash")) || bytes.Contains([]byte(body), []byte(`"x"`)) {
		t.Fatalf("password hash must never leave the server, body=%s", body)
	}
}

func TestRefreshHandler(t *testing.T) {
	users := &fakeUserStore{}
	refresh := newFakeRefreshStore()
	h, jwtManager := newAuthHandler(users, refresh)

	userID := uuid.NewString()

	issue := func(t *testing.T) (raw, jti string) {
		t.Helper()

		raw, jti, expiresAt, err := jwtManager.GenerateRefreshToken(userID, "ada@example.com")
		if err != nil {
			t.Fatalf("generate refresh token: %v", err)
		}

		refresh.rows[jti] = postgres.RefreshTokenRow{
			ID:        jti,
			UserID:    userID,
			TokenHash: jwtManager.HashRefreshToken(raw),
			ExpiresAt: expiresAt,
			CreatedAt: time.Now().UTC(),
		}

		return raw, jti
	}

	do := func(cookie string) *httptest.ResponseRecorder {
		r := authRouter(http.MethodPost, "/auth/refresh", h.Refresh)

		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: "refresh_token", Value: cookie})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("rotates_the_token", func(t *testing.T) {
		raw, jti := issue(t)

		w := do(raw)
		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		old, ok := refresh.rows[jti]
		if !ok || old.RevokedAt == nil || old.ReplacedBy == nil {
			t.Fatalf("old token should be revoked with a successor, got %+v", old)
		}

		successor, ok := refresh.rows[*old.ReplacedBy]
		if !ok || successor.UserID != userID || successor.RevokedAt != nil {
			t.Fatalf("successor row missing or wrong: %+v", successor)
		}
	})

	t.Run("replayed_token_rejected", func(t *testing.T) {
		raw, _ := issue(t)

		if w := do(raw); w.Code != http.StatusOK {
			t.Fatalf("first use: got status %d", w.Code)
		}
		if w := do(raw); w.Code != http.StatusUnauthorized {
			t.Fatalf("replay: got status %d, want 401", w.Code)
		}
	})

	t.Run("missing_cookie", func(t *testing.T) {
		if w := do(""); w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})

	t.Run("access_token_not_accepted", func(t *testing.T) {
		accessToken, err := jwtManager.GenerateAccessToken(userID, "ada@example.com")
		if err != nil {
			t.Fatalf("generate access token: %v", err)
		}

		if w := do(accessToken); w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})

	t.Run("unknown_jti", func(t *testing.T) {
		raw, jti := issue(t)
		delete(refresh.rows, jti)

		if w := do(raw); w.Code != http.StatusUnauthorized {
			t.Fatalf("got status %d, want 401", w.Code)
		}
	})
}

func TestLogoutHandler(t *testing.T) {
	users := &fakeUserStore{}
	refresh := newFakeRefreshStore()
	h, jwtManager := newAuthHandler(users, refresh)

	userID := uuid.NewString()
	raw, jti, expiresAt, err := jwtManager.GenerateRefreshToken(userID, "ada@example.com")
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	refresh.rows[jti] = postgres.RefreshTokenRow{
		ID:        jti,
		UserID:    userID,
		TokenHash: jwtManager.HashRefreshToken(raw),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now().UTC(),
	}

	r := authRouter(http.MethodPost, "/auth/logout", h.Logout)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: raw})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if row := refresh.rows[jti]; row.RevokedAt == nil {
		t.Fatalf("logout should revoke the presented token, got %+v", row)
	}

	// logout with no cookie is still a 204
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("cookieless logout: got status %d", w.Code)
	}
}
