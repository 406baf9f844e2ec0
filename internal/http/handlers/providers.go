package handlers

import (
	"net/http"

	middlewarex "billbridge/internal/http/middleware"
	"billbridge/internal/provider"
	"billbridge/internal/provider/registry"
)

type providerView struct {
	Type         provider.ProviderType `json:"type"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Capabilities []provider.Capability `json:"capabilities"`
	Available    bool                  `json:"available"`
}

// ListProviders returns every enabled provider with its availability for
// the calling user, so clients can hide gated providers up front.
func ListProviders(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := middlewarex.UserID(r.Context())

		var out []providerView
		for _, p := range reg.GetEnabledProviders() {
			out = append(out, providerView{
				Type:         p.Type(),
				Name:         p.Name(),
				Description:  p.Description(),
				Capabilities: p.Capabilities(),
				Available:    p.CheckFeatureFlag(r.Context(), userID),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out})
	}
}

// ProvidersHealth probes every provider and reports per-provider health.
func ProvidersHealth(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := reg.HealthCheckAll(r.Context())

		allHealthy := true
		for _, ok := range health {
			if !ok {
				allHealthy = false
			}
		}

		status := http.StatusOK
		if !allHealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"healthy": allHealthy, "providers": health})
	}
}
