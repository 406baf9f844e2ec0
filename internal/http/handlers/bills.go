package handlers

import (
	"encoding/json"
	"net/http"

	middlewarex "billbridge/internal/http/middleware"
	"billbridge/internal/provider"
	"billbridge/internal/provider/registry"

	"github.com/go-chi/chi/v5"
)

// billProvider resolves the bill-payment provider for a request. The
// provider query parameter selects one; sayswitch is the default.
func billProvider(reg *registry.Registry, r *http.Request) (provider.BillPaymentProvider, *provider.ProviderError) {
	pt := provider.ProviderSaySwitch
	if v := r.URL.Query().Get("provider"); v != "" {
		pt = provider.ProviderType(v)
	}
	bp, err := reg.GetBillPaymentProvider(pt)
	if err != nil {
		var perr *provider.ProviderError
		if pe, ok := err.(*provider.ProviderError); ok {
			perr = pe
		} else {
			perr = provider.NewError(provider.ErrNotFound, err.Error())
		}
		return nil, perr
	}
	return bp, nil
}

// gate rejects users the provider's feature flag has not reached yet.
func gate(w http.ResponseWriter, r *http.Request, p provider.Provider) (string, bool) {
	userID, _ := middlewarex.UserID(r.Context())
	if !p.CheckFeatureFlag(r.Context(), userID) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"error":   "provider not available for this account",
		})
		return "", false
	}
	return userID, true
}

func BillProviders(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := bp.GetProviders(r.Context(), provider.BillCategory(chi.URLParam(r, "category")))
		writeJSON(w, statusFor(result.Error), result)
	}
}

func DataPlans(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := bp.GetDataPlans(r.Context(), chi.URLParam(r, "vendor"))
		writeJSON(w, statusFor(result.Error), result)
	}
}

func TVPackages(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := bp.GetTVPackages(r.Context(), chi.URLParam(r, "vendor"))
		writeJSON(w, statusFor(result.Error), result)
	}
}

func ValidateCustomer(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		var req provider.ValidateCustomerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		result := bp.ValidateCustomer(r.Context(), req)
		writeJSON(w, statusFor(result.Error), result)
	}
}

// PayBill executes a bill payment for the authenticated user.
func PayBill(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, ok := gate(w, r, bp)
		if !ok {
			return
		}

		var req provider.BillPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		req.UserID = userID

		resp := bp.PayBill(r.Context(), req)
		writeJSON(w, statusFor(resp.Error), resp)
	}
}

func ListTransactions(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, _ := middlewarex.UserID(r.Context())
		category := provider.BillCategory(r.URL.Query().Get("category"))

		result := bp.GetUserTransactions(r.Context(), userID, category)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func GetTransaction(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		result := bp.GetTransaction(r.Context(), chi.URLParam(r, "reference"))
		writeJSON(w, statusFor(result.Error), result)
	}
}

func SaveFavorite(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, _ := middlewarex.UserID(r.Context())

		var fav provider.Favorite
		if err := json.NewDecoder(r.Body).Decode(&fav); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
		fav.UserID = userID

		result := bp.SaveFavorite(r.Context(), fav)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func ListFavorites(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, _ := middlewarex.UserID(r.Context())
		result := bp.GetFavorites(r.Context(), userID)
		writeJSON(w, statusFor(result.Error), result)
	}
}

func DeleteFavorite(reg *registry.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bp, perr := billProvider(reg, r)
		if perr != nil {
			writeJSON(w, statusFor(perr), map[string]any{"success": false, "error": perr.Message})
			return
		}
		userID, _ := middlewarex.UserID(r.Context())
		result := bp.DeleteFavorite(r.Context(), userID, chi.URLParam(r, "id"))
		writeJSON(w, statusFor(result.Error), result)
	}
}
