package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/auth"
	"github.com/hiimjupter/ris-api/internal/database"
	"github.com/hiimjupter/ris-api/internal/enum"
	"github.com/jackc/pgx/v5"
)

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetStaffAccountByUsername(ctx context.Context, username string) (database.StaffAccount, error)
	GetStaffAccountByID(ctx context.Context, id uuid.UUID) (database.StaffAccount, error)
}

// AuthHandler handles authentication and the caller's profile.
type AuthHandler struct {
	store      AuthStore
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// RegisterRoutes registers the public auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	Staff        staffResponse `json:"staff"`
}

type staffResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	RoleID    int16     `json:"role_id"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toStaffResponse(a database.StaffAccount) staffResponse {
	return staffResponse{
		ID:        a.ID,
		Username:  a.Username,
		FullName:  a.FullName,
		RoleID:    a.RoleID,
		Role:      enum.Role(a.RoleID).String(),
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

// --- Handlers ---

// Login handles username + password authentication. Inactive accounts still
// get tokens; every operation they call is refused by the access gate.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "username and password are required", Code: "invalid_input"})
		return
	}

	account, err := h.store.GetStaffAccountByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: "invalid_credentials"})
			return
		}
		log.Printf("ERROR: login lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	if !auth.CheckPassword(account.PasswordHash, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: "invalid_credentials"})
		return
	}

	h.respondWithTokens(w, account)
}

// Refresh exchanges a valid refresh token for a new access + refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "refresh_token is required", Code: "invalid_input"})
		return
	}

	userID, err := auth.ValidateRefreshToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid refresh token", Code: "invalid_token"})
		return
	}

	account, err := h.store.GetStaffAccountByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "account not found", Code: "invalid_token"})
			return
		}
		log.Printf("ERROR: refresh lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	h.respondWithTokens(w, account)
}

// Me returns the caller's own account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if _, err := access.Authorize(p, access.OpViewProfile); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.store.GetStaffAccountByID(r.Context(), p.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "account not found", Code: "not_found"})
			return
		}
		log.Printf("ERROR: profile lookup: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}
	writeJSON(w, http.StatusOK, toStaffResponse(account))
}

// --- Helpers ---

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, account database.StaffAccount) {
	accessToken, err := auth.GenerateToken(h.jwtSecret, account.ID, enum.Role(account.RoleID), h.accessTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	refreshToken, err := auth.GenerateRefreshToken(h.jwtSecret, account.ID, h.refreshTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Staff:        toStaffResponse(account),
	})
}
