package notificacao

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
)

// Handler expõe as rotas de notificações.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notificacoes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/nao-lidas", h.handleContarNaoLidas)
		r.Post("/{id}/lida", h.handleMarcarLida)
		r.Post("/lidas", h.handleMarcarTodasLidas)
		r.Delete("/{id}", h.handleExcluir)
		r.Delete("/", h.handleExcluirTodas)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	somenteNaoLidas := r.URL.Query().Get("nao_lidas") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	itens, err := h.service.List(ctx, ator, somenteNaoLidas, limit)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notificacoes": itens})
}

func (h *Handler) handleContarNaoLidas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	total, err := h.service.ContarNaoLidas(ctx, ator)
	if err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": total})
}

func (h *Handler) handleMarcarLida(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "notificação inválida")
		return
	}

	if err := h.service.MarcarLida(ctx, ator, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMarcarTodasLidas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	if err := h.service.MarcarTodasLidas(ctx, ator); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleExcluir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "notificação inválida")
		return
	}

	if err := h.service.Excluir(ctx, ator, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleExcluirTodas(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	if err := h.service.ExcluirTodas(ctx, ator); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func atorDoContexto(ctx context.Context) (usuario.Ator, error) {
	return usuario.AtorFromClaims(
		httpmiddleware.GetSubject(ctx),
		httpmiddleware.GetPerfil(ctx),
		httpmiddleware.GetPilotoID(ctx),
	)
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "notificação não encontrada")
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("notificacao handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
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
