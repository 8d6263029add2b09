package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/auth"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/hiimjupter/ris-api/internal/middleware"
	"github.com/jackc/pgx/v5"
)

const testSecret = "test-secret"

type mockStaff struct {
	getFn func(ctx context.Context, id uuid.UUID) (database.StaffAccount, error)
}

func (m *mockStaff) GetStaffAccountByID(ctx context.Context, id uuid.UUID) (database.StaffAccount, error) {
	return m.getFn(ctx, id)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	token, _ := auth.GenerateToken(testSecret, userID, enum.RoleWaiter, time.Minute)

	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.UserID != userID {
			t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	for _, header := range []string{"Bearer invalid-token", "Basic abc", "token"} {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", header)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%q: status got %d, want %d", header, rr.Code, http.StatusUnauthorized)
		}
	}
}

func TestLoadPrincipal_UsesAccountRow(t *testing.T) {
	userID := uuid.New()
	// Token says waiter, the row says the account was made a chef and deactivated.
	token, _ := auth.GenerateToken(testSecret, userID, enum.RoleWaiter, time.Minute)
	staff := &mockStaff{getFn: func(ctx context.Context, id uuid.UUID) (database.StaffAccount, error) {
		if id != userID {
			t.Errorf("lookup id: got %v, want %v", id, userID)
		}
		return database.StaffAccount{ID: id, RoleID: int16(enum.RoleChef), IsActive: false}, nil
	}}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := middleware.PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in context")
		}
		if p.AccountID != userID || p.Role != enum.RoleChef || p.Active {
			t.Errorf("unexpected principal %+v", p)
		}
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Authenticate(testSecret)(middleware.LoadPrincipal(staff)(inner))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestLoadPrincipal_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown account", pgx.ErrNoRows, http.StatusUnauthorized},
		{"storage down", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _ := auth.GenerateToken(testSecret, uuid.New(), enum.RoleWaiter, time.Minute)
			staff := &mockStaff{getFn: func(ctx context.Context, id uuid.UUID) (database.StaffAccount, error) {
				return database.StaffAccount{}, tt.err
			}}
			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			})
			handler := middleware.Authenticate(testSecret)(middleware.LoadPrincipal(staff)(inner))

			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestLoadPrincipal_WithoutClaims(t *testing.T) {
	staff := &mockStaff{getFn: func(ctx context.Context, id uuid.UUID) (database.StaffAccount, error) {
		t.Fatal("lookup should not be called")
		return database.StaffAccount{}, nil
	}}
	handler := middleware.LoadPrincipal(staff)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
