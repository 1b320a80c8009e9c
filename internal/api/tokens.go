package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/eplancompare/eplancompare/internal/auth"
	"github.com/eplancompare/eplancompare/internal/storage"
)

// registerTokenRoutes mounts login and self-service API token management.
func registerTokenRoutes(mux *http.ServeMux, st storage.Storage, authSvc *auth.Service) {
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		handleLogin(w, r, authSvc)
	})
	mux.Handle("/api/v2/tokens", authSvc.Middleware(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				handleListTokens(w, r, st)
			case http.MethodPost:
				handleCreateToken(w, r, authSvc)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		})))
	mux.Handle("/api/v2/tokens/", authSvc.Middleware(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			handleDeleteToken(w, r, st)
		})))
}

// handleLogin exchanges credentials for a short-lived API token. This is the
// bootstrap path; longer-lived tokens are minted through /api/v2/tokens.
func handleLogin(w http.ResponseWriter, r *http.Request, authSvc *auth.Service) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	user, err := authSvc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	exp, err := auth.ParseExpirationDuration("24h")
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	token, raw, err := authSvc.CreateToken(r.Context(), user.ID, "login", user.Role, exp)
	if err != nil {
		log.Printf("login: create token: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Token     string        `json:"token"`
		ExpiresAt *time.Time    `json:"expires_at"`
		User      *storage.User `json:"user"`
	}{Token: raw, ExpiresAt: token.ExpiresAt, User: user})
}

func handleListTokens(w http.ResponseWriter, r *http.Request, st storage.Storage) {
	tok, ok := auth.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	tokens, err := st.ListTokens(r.Context(), tok.UserID)
	if err != nil {
		log.Printf("list tokens: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Tokens []storage.Token `json:"tokens"`
	}{Tokens: tokens})
}

func handleCreateToken(w http.ResponseWriter, r *http.Request, authSvc *auth.Service) {
	tok, ok := auth.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name    string `json:"name"`
		Expires string `json:"expires"` // "never", Go duration, "30d", or a date
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "missing token name", http.StatusBadRequest)
		return
	}

	exp, err := auth.ParseExpirationDuration(req.Expires)
	if err != nil {
		http.Error(w, "invalid expires value: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The new token inherits the caller's role; privilege can only be
	// narrowed by the policy, never widened here.
	token, raw, err := authSvc.CreateToken(r.Context(), tok.UserID, req.Name, tok.Role, exp)
	if err != nil {
		log.Printf("create token: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, struct {
		Token string         `json:"token"`
		Meta  *storage.Token `json:"meta"`
	}{Token: raw, Meta: token})
}

func handleDeleteToken(w http.ResponseWriter, r *http.Request, st storage.Storage) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tok, ok := auth.TokenFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v2/tokens/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid token id", http.StatusBadRequest)
		return
	}

	target, err := st.GetToken(r.Context(), id)
	if err != nil {
		log.Printf("get token %s: %v", id, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if target == nil || target.UserID != tok.UserID {
		// Hide other users' tokens entirely.
		http.Error(w, "token not found", http.StatusNotFound)
		return
	}

	if err := st.DeleteToken(r.Context(), id); err != nil {
		log.Printf("delete token %s: %v", id, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
