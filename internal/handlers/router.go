package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/veltec-mfg/scanintakego/internal/config"
	"github.com/veltec-mfg/scanintakego/internal/database"
	"github.com/veltec-mfg/scanintakego/internal/middleware"
	"github.com/veltec-mfg/scanintakego/internal/websocket"
)

// PackagingGenerator produces the packaging sheet for a finalized pallet.
// The actual sheet rendering and printing lives in the packaging system;
// the ledger only triggers it and records the lock.
type PackagingGenerator interface {
	Generate(jobNumber string, palletID int64) error
}

// noopPackaging is used when no packaging system is attached.
type noopPackaging struct{}

func (noopPackaging) Generate(string, int64) error { return nil }

// Router wraps the mux router and database
type Router struct {
	*mux.Router
	db        *database.DB
	hub       *websocket.Hub
	cfg       *config.Config
	packaging PackagingGenerator
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(db *database.DB, hub *websocket.Hub, cfg *config.Config) *Router {
	r := &Router{
		Router:    mux.NewRouter(),
		db:        db,
		hub:       hub,
		cfg:       cfg,
		packaging: noopPackaging{},
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Dashboard API (path casing kept for the existing frontend)
	api := r.PathPrefix("/api/dashboard").Subrouter()

	api.HandleFunc("/scan", r.submitScan).Methods("POST")
	api.HandleFunc("/scan", r.deleteScan).Methods("DELETE")
	api.HandleFunc("/deleted-scans", r.listDeletedScans).Methods("GET")

	api.HandleFunc("/pallets", r.createPallet).Methods("POST")
	api.HandleFunc("/pallets/{jobNumber}", r.listPallets).Methods("GET")
	api.HandleFunc("/pallets/{id:[0-9]+}", r.renamePallet).Methods("PUT")
	api.HandleFunc("/pallets/{id:[0-9]+}", r.deletePallet).Methods("DELETE")
	api.HandleFunc("/pallets/{id:[0-9]+}/contents", r.palletContents).Methods("GET")
	api.HandleFunc("/pallets/{id:[0-9]+}/label.png", r.palletLabel).Methods("GET")
	api.HandleFunc("/pallets/{id:[0-9]+}/packaging", r.generatePackaging).Methods("POST")
	api.HandleFunc("/pallets/{id:[0-9]+}/packaging",
		middleware.RequireRole(cfg.JWTSecret, "supervisor", r.unlockPallet)).Methods("DELETE")

	// Dashboard event feed
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		websocket.ServeWS(hub, w, req)
	})

	return r
}

// SetPackagingGenerator attaches the external packaging system.
func (r *Router) SetPackagingGenerator(gen PackagingGenerator) {
	if gen != nil {
		r.packaging = gen
	}
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response; the message field is what the
// kiosk shows the operator verbatim.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"message": message,
	})
}
