package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/mattermost/mattermost/server/public/plugin"
	"github.com/pkg/errors"

	"github.com/mattermost/mattermost-plugin-crisiscommander/server/crisis"
)

// ServeHTTP handles HTTP requests for the plugin.
// The root URL is currently <siteUrl>/plugins/com.mattermost.plugin-crisiscommander/api/v1/.
func (p *Plugin) ServeHTTP(c *plugin.Context, w http.ResponseWriter, r *http.Request) {
	router := mux.NewRouter()

	// Middleware to require that the user is logged in
	router.Use(p.MattermostAuthorizationRequired)

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	apiRouter.HandleFunc("/incidents", p.handleListIncidents).Methods(http.MethodGet)
	apiRouter.HandleFunc("/incidents/{id}", p.handleGetIncident).Methods(http.MethodGet)
	apiRouter.HandleFunc("/incidents/{id}/select", p.handleSelectIncident).Methods(http.MethodPost)
	apiRouter.HandleFunc("/incidents/{id}/analyze", p.handleAnalyzeIncident).Methods(http.MethodPost)
	apiRouter.HandleFunc("/incidents/{id}/assign", p.handleAssignService).Methods(http.MethodPost)
	apiRouter.HandleFunc("/incidents/{id}/dispatch-recommendation", p.handleDispatchRecommendation).Methods(http.MethodPost)
	apiRouter.HandleFunc("/incidents/{id}/summary", p.handleIncidentSummary).Methods(http.MethodGet)
	apiRouter.HandleFunc("/analysis/pattern", p.handlePatternAnalysis).Methods(http.MethodPost)
	apiRouter.HandleFunc("/services", p.handleListServices).Methods(http.MethodGet)
	apiRouter.HandleFunc("/cache/stats", p.handleCacheStats).Methods(http.MethodGet)
	apiRouter.HandleFunc("/cache", p.handleClearCache).Methods(http.MethodDelete)

	router.ServeHTTP(w, r)
}

func (p *Plugin) MattermostAuthorizationRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("Mattermost-User-ID")
		if userID == "" {
			http.Error(w, "Not authorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (p *Plugin) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		p.API.LogError("Failed to write JSON response", "error", err.Error())
	}
}

func (p *Plugin) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	state := cs.Snapshot()
	p.writeJSON(w, http.StatusOK, state)
}

func (p *Plugin) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	inc, ok := cs.Incident(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Incident not found", http.StatusNotFound)
		return
	}

	p.writeJSON(w, http.StatusOK, inc)
}

func (p *Plugin) handleSelectIncident(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	cs.SelectIncident(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) handleAnalyzeIncident(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	result, err := cs.RunAnalysis(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, crisis.ErrIncidentNotFound) {
			http.Error(w, "Incident not found", http.StatusNotFound)
			return
		}
		p.API.LogError("Incident analysis failed", "incidentID", mux.Vars(r)["id"], "error", err.Error())
		http.Error(w, "Analysis failed", http.StatusBadGateway)
		return
	}

	p.writeJSON(w, http.StatusOK, result)
}

func (p *Plugin) handleAssignService(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	var body struct {
		ServiceID string `json:"serviceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ServiceID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cs.AssignService(mux.Vars(r)["id"], body.ServiceID)
	w.WriteHeader(http.StatusNoContent)
}

func (p *Plugin) handleDispatchRecommendation(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	rec, err := cs.Recommend(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, crisis.ErrIncidentNotFound) {
			http.Error(w, "Incident not found", http.StatusNotFound)
			return
		}
		p.API.LogError("Dispatch recommendation failed", "incidentID", mux.Vars(r)["id"], "error", err.Error())
		http.Error(w, "Recommendation failed", http.StatusBadGateway)
		return
	}

	p.writeJSON(w, http.StatusOK, rec)
}

func (p *Plugin) handleIncidentSummary(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	summary, err := cs.Summarize(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, crisis.ErrIncidentNotFound) {
			http.Error(w, "Incident not found", http.StatusNotFound)
			return
		}
		p.API.LogError("Incident summary failed", "incidentID", mux.Vars(r)["id"], "error", err.Error())
		http.Error(w, "Summary failed", http.StatusBadGateway)
		return
	}

	p.writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (p *Plugin) handlePatternAnalysis(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	result, err := cs.RunPatternAnalysis(r.Context())
	if err != nil {
		p.API.LogError("Pattern analysis failed", "error", err.Error())
		http.Error(w, "Pattern analysis failed", http.StatusBadGateway)
		return
	}

	p.writeJSON(w, http.StatusOK, result)
}

func (p *Plugin) handleListServices(w http.ResponseWriter, r *http.Request) {
	cs := p.crisisStore()
	if cs == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	state := cs.Snapshot()
	p.writeJSON(w, http.StatusOK, state.Services)
}

func (p *Plugin) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	kv := p.cacheStore()
	if kv == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	stats, err := kv.Stats()
	if err != nil {
		p.API.LogError("Failed to collect cache stats", "error", err.Error())
		http.Error(w, "Failed to collect cache stats", http.StatusInternalServerError)
		return
	}

	p.writeJSON(w, http.StatusOK, stats)
}

func (p *Plugin) handleClearCache(w http.ResponseWriter, r *http.Request) {
	kv := p.cacheStore()
	if kv == nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := kv.Clear(); err != nil {
		p.API.LogError("Failed to clear cache", "error", err.Error())
		http.Error(w, "Failed to clear cache", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
