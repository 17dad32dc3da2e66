package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopkube/shopkube/internal/domain"
	"github.com/shopkube/shopkube/internal/service"
)

type StoreHandler struct {
	provision   *service.ProvisionService
	deprovision *service.DeprovisionService
	status      *service.StatusService
	repo        domain.StoreRepository
}

func NewStoreHandler(
	provision *service.ProvisionService,
	deprovision *service.DeprovisionService,
	status *service.StatusService,
	repo domain.StoreRepository,
) *StoreHandler {
	return &StoreHandler{
		provision:   provision,
		deprovision: deprovision,
		status:      status,
		repo:        repo,
	}
}

type createStoreRequest struct {
	StoreName string `json:"store_name"`
	Engine    string `json:"engine"`
}

func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.repo.ListAll(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load stores")
		return
	}
	if stores == nil {
		stores = []domain.Store{}
	}
	writeJSON(w, http.StatusOK, stores)
}

func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.provision.Provision(r.Context(), req.StoreName, domain.Engine(req.Engine), r.RemoteAddr)
	if err != nil {
		writeProvisionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success":    true,
		"status":     result.Status,
		"store_name": result.Name,
		"namespace":  result.Namespace,
		"url":        result.URL,
	})
}

func (h *StoreHandler) Status(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")

	result, err := h.status.Reconcile(r.Context(), key)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]string{"status": "NotFound"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "Error",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *StoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")

	result, err := h.deprovision.Deprovision(r.Context(), key, r.RemoteAddr)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			writeJSON(w, http.StatusNotFound, map[string]any{
				"success": false,
				"message": "store " + key + " not found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"message": "failed to delete store",
			"errors":  []string{err.Error()},
		})
		return
	}

	resp := map[string]any{
		"success": true,
		"message": "store " + result.Name + " deleted",
		"deleted_store": map[string]string{
			"name":      result.Name,
			"namespace": result.Namespace,
		},
	}
	if len(result.Warnings) > 0 {
		resp["warnings"] = result.Warnings
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeProvisionError maps the saga's error taxonomy onto transport
// responses. The machine-readable category lets callers branch without
// parsing detail strings.
func writeProvisionError(w http.ResponseWriter, err error) {
	var (
		validationErr  *domain.ValidationError
		deployErr      *domain.DeploymentError
		persistenceErr *domain.PersistenceError
		infraErr       *domain.InfrastructureError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "validation failed",
			"details": validationErr.Error(),
		})
	case errors.As(err, &deployErr):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "helm installation failed",
			"details": deployErr.Detail,
		})
	case errors.As(err, &persistenceErr):
		resp := map[string]any{
			"success": false,
			"error":   "database save failed after helm install",
			"details": persistenceErr.Error(),
		}
		if persistenceErr.Untracked {
			resp["warning"] = "store may be running in cluster but not tracked in DB"
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	case errors.As(err, &infraErr):
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "cluster operation failed",
			"details": infraErr.Error(),
		})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "store provisioning failed",
			"details": err.Error(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
