package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modkit/modkit-server/internal/logger"
)

// VaultService defines credential vault operations used by module provisioning.
type VaultService interface {
	SetSecure(ctx context.Context, namespace, keyName string, value any) bool
	GetSecure(ctx context.Context, namespace, keyName string, def any) any
	DeleteSecure(ctx context.Context, namespace, keyName string) bool
}

type secretRequest struct {
	Value any `json:"value"`
}

type secretResponse struct {
	Value any `json:"value"`
}

// Secret handles module credential provisioning endpoints.
type Secret struct {
	vault  VaultService
	logger *logger.Logger
}

// NewSecret creates a new Secret handler.
func NewSecret(vault VaultService, logger *logger.Logger) *Secret {
	return &Secret{vault: vault, logger: logger}
}

// Put handles PUT /modules/{namespace}/secrets/{key}.
func (h *Secret) Put(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	keyName := chi.URLParam(r, "key")

	var req secretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	if !h.vault.SetSecure(r.Context(), namespace, keyName, req.Value) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to store secret"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Get handles GET /modules/{namespace}/secrets/{key}. An entry that is
// absent and one that fails to decrypt are both 404 by design.
func (h *Secret) Get(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	keyName := chi.URLParam(r, "key")

	value := h.vault.GetSecure(r.Context(), namespace, keyName, nil)
	if value == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	writeJSON(w, http.StatusOK, secretResponse{Value: value})
}

// Delete handles DELETE /modules/{namespace}/secrets/{key}.
func (h *Secret) Delete(w http.ResponseWriter, r *http.Request) {
	namespace := chi.URLParam(r, "namespace")
	keyName := chi.URLParam(r, "key")

	if !h.vault.DeleteSecure(r.Context(), namespace, keyName) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to delete secret"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
