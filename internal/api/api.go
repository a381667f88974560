package api

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/sfeole/maas/internal/dns"
	"github.com/sfeole/maas/internal/lease"
	"github.com/sfeole/maas/internal/repository"
)

// API holds the repositories and services behind the HTTP surface
type API struct {
	nodeGroupRepo repository.NodeGroupRepository
	subnetRepo    repository.SubnetRepository
	vlanRepo      repository.VLANRepository
	settingsRepo  repository.SettingsRepository
	generator     *dns.Generator
	reconciler    *lease.Reconciler
}

// NewAPI creates a new API with all dependencies wired over db
func NewAPI(db *sql.DB, logger zerolog.Logger) *API {
	return &API{
		nodeGroupRepo: repository.NewNodeGroupRepository(db),
		subnetRepo:    repository.NewSubnetRepository(db),
		vlanRepo:      repository.NewVLANRepository(db),
		settingsRepo:  repository.NewSettingsRepository(db),
		generator:     dns.NewGenerator(repository.NewDNSStore(db), logger),
		reconciler:    lease.NewReconciler(repository.NewLeaseStore(db), logger),
	}
}

// RegisterRoutes registers all API routes on the router
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v0", func(r chi.Router) {
		r.Post("/leases", a.updateLeaseHandler)

		r.Get("/dns/zones", a.listZonesHandler)
		r.Get("/dns/zones/{name}", a.getZoneHandler)

		r.Get("/nodegroups", a.listNodeGroupsHandler)
		r.Post("/nodegroups", a.createNodeGroupHandler)
		r.Post("/nodegroups/{id}/interfaces", a.createNodeGroupInterfaceHandler)

		r.Get("/subnets", a.listSubnetsHandler)
		r.Post("/subnets", a.createSubnetHandler)
	})
}

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// writeError writes a JSON error response with the given status code
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
