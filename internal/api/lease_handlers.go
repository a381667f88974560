package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sfeole/maas/internal/lease"
)

// LeaseEventRequest is the JSON body delivered by the DHCP infrastructure
// for every lease state change.
type LeaseEventRequest struct {
	Action    string `json:"action"`
	MAC       string `json:"mac"`
	IP        string `json:"ip"`
	IPFamily  string `json:"ip_family"`
	Timestamp int64  `json:"timestamp"`
	LeaseTime int64  `json:"lease_time,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
}

// updateLeaseHandler handles POST /api/v0/leases.
//
// Applies one lease event to the assignment model. Returns 204 on success
// (including the documented no-op cases), 400 with the validation message
// for events that cannot be reconciled, and 500 for storage failures.
func (a *API) updateLeaseHandler(w http.ResponseWriter, r *http.Request) {
	var req LeaseEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MAC == "" || req.IP == "" {
		writeError(w, http.StatusBadRequest, "mac and ip are required")
		return
	}

	err := a.reconciler.UpdateLease(r.Context(), lease.Event{
		Action:    req.Action,
		MAC:       req.MAC,
		IP:        req.IP,
		Family:    req.IPFamily,
		Timestamp: req.Timestamp,
		LeaseTime: req.LeaseTime,
		Hostname:  req.Hostname,
	})
	if err != nil {
		var updateErr *lease.UpdateError
		if errors.As(err, &updateErr) {
			writeError(w, http.StatusBadRequest, updateErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to apply lease update")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
