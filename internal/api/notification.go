package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/eplancompare/eplancompare/internal/auth"
	"github.com/eplancompare/eplancompare/internal/notification"
	"github.com/eplancompare/eplancompare/internal/storage"
)

// registerNotificationRoutes mounts the email settings endpoints under
// /api/v1/settings/email. Reads need the settings read permission, writes
// and test sends need write.
func registerNotificationRoutes(mux *http.ServeMux, authSvc *auth.Service, svc *notification.Service) {
	mux.Handle("/api/v1/settings/email", authSvc.Middleware(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				authSvc.RequirePermission(auth.ObjSettings, "read",
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						handleGetEmailConfig(w, r, svc)
					})).ServeHTTP(w, r)
			case http.MethodPut:
				authSvc.RequirePermission(auth.ObjSettings, "write",
					http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						handleSaveEmailConfig(w, r, svc)
					})).ServeHTTP(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
		})))

	mux.Handle("/api/v1/settings/email/test", authSvc.Middleware(
		authSvc.RequirePermission(auth.ObjSettings, "write",
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handleTestEmailConfig(w, r, svc)
			}))))
}

func handleGetEmailConfig(w http.ResponseWriter, r *http.Request, svc *notification.Service) {
	cfg, err := svc.GetConfig(r.Context())
	if err != nil {
		log.Printf("get email config: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if cfg == nil {
		http.Error(w, "email not configured", http.StatusNotFound)
		return
	}

	// Never echo credentials back.
	cfg.Password = ""
	cfg.APIKey = ""
	writeJSON(w, cfg)
}

func handleSaveEmailConfig(w http.ResponseWriter, r *http.Request, svc *notification.Service) {
	var cfg storage.EmailConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if err := svc.SaveConfig(r.Context(), cfg); err != nil {
		log.Printf("save email config: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func handleTestEmailConfig(w http.ResponseWriter, r *http.Request, svc *notification.Service) {
	var req struct {
		storage.EmailConfig
		To string `json:"to"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.To == "" {
		http.Error(w, "missing \"to\" address", http.StatusBadRequest)
		return
	}

	if err := svc.TestConfig(r.Context(), req.EmailConfig, req.To); err != nil {
		log.Printf("test email config: %v", err)
		http.Error(w, "test send failed: "+err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, struct {
		Status string `json:"status"`
	}{Status: "sent"})
}
