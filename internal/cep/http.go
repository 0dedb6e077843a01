package cep

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// Handler expõe a consulta de CEP usada nos formulários de endereço.
type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/cep/{cep}", h.handleBuscar)
}

func (h *Handler) handleBuscar(w http.ResponseWriter, r *http.Request) {
	end, err := h.client.Buscar(r.Context(), chi.URLParam(r, "cep"))
	switch {
	case errors.Is(err, ErrCEPInvalido):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, ErrNaoEncontrado):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrIndisponivel):
		writeError(w, http.StatusBadGateway, "UPSTREAM", err.Error())
	case err != nil:
		log.Error().Err(err).Msg("cep handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
	default:
		writeJSON(w, http.StatusOK, map[string]any{"endereco": end})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": payload, "error": nil})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data":  nil,
		"error": map[string]any{"code": code, "message": message},
	})
}
