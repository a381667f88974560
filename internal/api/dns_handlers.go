package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sfeole/maas/internal/dns"
)

// ZoneSummary is the JSON shape describing one generated zone
type ZoneSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Domain  string `json:"domain"`
	Serial  uint32 `json:"serial"`
	Records int    `json:"records"`
}

// listZonesHandler handles GET /api/v0/dns/zones.
//
// Generates zones for every node group against the current model snapshot
// and returns their summaries. Zone generation never mutates state, so this
// is safe to call at any frequency.
func (a *API) listZonesHandler(w http.ResponseWriter, r *http.Request) {
	zones, ok := a.generateZones(w, r)
	if !ok {
		return
	}

	summaries := make([]ZoneSummary, 0, len(zones))
	for _, zone := range zones {
		summaries = append(summaries, ZoneSummary{
			Name:    zone.Origin,
			Kind:    string(zone.Kind),
			Domain:  zone.Domain,
			Serial:  zone.Serial,
			Records: len(zone.Mapping),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// getZoneHandler handles GET /api/v0/dns/zones/{name}.
//
// Returns the rendered zone file for the named zone as text/plain.
func (a *API) getZoneHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	zones, ok := a.generateZones(w, r)
	if !ok {
		return
	}

	for _, zone := range zones {
		if zone.Origin != name {
			continue
		}
		text, err := zone.Render()
		if err != nil {
			log.Printf("failed to render zone %s: %v", name, err)
			writeError(w, http.StatusInternalServerError, "failed to render zone")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if _, err := w.Write([]byte(text)); err != nil {
			log.Printf("failed to write zone %s: %v", name, err)
		}
		return
	}

	writeError(w, http.StatusNotFound, "zone not found")
}

// generateZones produces the zone batch for all node groups, writing the
// error response itself when generation fails.
func (a *API) generateZones(w http.ResponseWriter, r *http.Request) ([]dns.Zone, bool) {
	groups, err := a.nodeGroupRepo.FindAll(r.Context())
	if err != nil {
		log.Printf("failed to list node groups: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to list node groups")
		return nil, false
	}
	if len(groups) == 0 {
		return nil, true
	}

	zones, err := a.generator.Generate(r.Context(), groups, dns.GenerateOptions{
		SerialSource: func() uint32 { return dns.UnixSerial(time.Now()) },
	})
	if err != nil {
		log.Printf("failed to generate zones: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to generate zones")
		return nil, false
	}
	return zones, true
}
