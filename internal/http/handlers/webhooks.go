package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"billbridge/internal/domain/event"
	"billbridge/internal/provider"
	"billbridge/internal/provider/registry"
	"billbridge/internal/store/repositories"

	"github.com/go-chi/chi/v5"
)

// WebhookIntake verifies and persists a provider webhook. Processing
// happens asynchronously in the event worker; the provider only needs a
// fast 200 to stop redelivering.
func WebhookIntake(reg *registry.Registry, events repositories.EventRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerType := provider.ProviderType(chi.URLParam(r, "provider"))
		sp, err := reg.GetSubscriptionProvider(providerType)
		if err != nil {
			http.Error(w, "unknown provider", http.StatusNotFound)
			return
		}

		body, _ := io.ReadAll(r.Body)

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}
		if verified := sp.VerifyWebhook(r.Context(), headers, body); !verified.Success || !verified.Data {
			http.Error(w, "signature verification failed", http.StatusUnauthorized)
			return
		}

		var envelope struct {
			EventType string `json:"event_type"`
			Resource  struct {
				ID string `json:"id"`
			} `json:"resource"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.EventType == "" {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}

		evt, err := event.New(string(providerType), envelope.EventType, envelope.Resource.ID, body)
		if err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		if err := events.Save(r.Context(), evt); err != nil {
			http.Error(w, "save failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}
}
