package handlers

import (
	"encoding/json"
	"net/http"

	middlewarex "billbridge/internal/http/middleware"
	"billbridge/internal/provider"
	"billbridge/internal/provider/registry"

	"github.com/go-chi/chi/v5"
)

// subscriptionProvider resolves the subscription provider for a request.
// The provider query parameter selects one; paypal is the default.
func subscriptionProvider(reg *registry.Registry, r *http.Request) (provider.SubscriptionProvider, *provider.ProviderError) {
	pt := provider.ProviderPayPal
	if v := r.URL.Query().Get("provider"); v != "" {
		pt = provider.ProviderType(v)
	}
	sp, err := reg.GetSubscriptionProvider(pt)
	if err != nil {
		if pe, ok := err.(*provider.ProviderError); ok {
			return nil, pe
		}
		return nil, provider.NewError(provider.ErrNotFound, err.Error())
	}
	return sp, nil
}

func ListPlans(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := sp.ListPlans(r.Context())
		writeJSON(w, statusFor(result.Error), result)
	}
}

func GetPlan(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := sp.GetPlan(r.Context(), chi.URLParam(r, "id"))
		writeJSON(w, statusFor(result.Error), result)
	}
}

func CreatePlan(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		var req provider.PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		result := sp.CreatePlan(r.Context(), req)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func UpdatePlan(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		var req provider.PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		result := sp.UpdatePlan(r.Context(), chi.URLParam(r, "id"), req)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func DeactivatePlan(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := sp.DeactivatePlan(r.Context(), chi.URLParam(r, "id"))
		writeJSON(w, statusFor(result.Error), result)
	}
}

// CreateSubscription starts a subscription for the authenticated user.
func CreateSubscription(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, ok := gate(w, r, sp)
		if !ok {
			return
		}

		var req provider.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		req.UserID = userID

		result := sp.CreateSubscription(r.Context(), req)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func GetSubscription(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := sp.GetSubscription(r.Context(), chi.URLParam(r, "id"))
		writeJSON(w, statusFor(result.Error), result)
	}
}

func ListUserSubscriptions(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, _ := middlewarex.UserID(r.Context())
		result := sp.GetUserSubscriptions(r.Context(), userID)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func CancelSubscription(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, _ := middlewarex.UserID(r.Context())

		var req provider.CancelSubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		req.SubscriptionID = chi.URLParam(r, "id")
		req.UserID = userID

		result := sp.CancelSubscription(r.Context(), req)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func UpdateSubscription(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		var req provider.UpdateSubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		req.SubscriptionID = chi.URLParam(r, "id")

		result := sp.UpdateSubscription(r.Context(), req)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func SuspendSubscription(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		var body struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		result := sp.SuspendSubscription(r.Context(), chi.URLParam(r, "id"), body.Reason)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func ResumeSubscription(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sp, perr := subscriptionProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		var body struct {
			Reason string `json:"reason"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		result := sp.ResumeSubscription(r.Context(), chi.URLParam(r, "id"), body.Reason)
		writeJSON(w, statusFor(result.Error), result)
	}
}
