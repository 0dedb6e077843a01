package usuario

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
	"github.com/ijasaude/vistoria/internal/util"
)

// Handler expõe o cadastro administrativo de contas UVIS.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/uvis", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/resumo", h.handleResumo)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type uvisPayload struct {
	Nome        string `json:"nome"`
	Regiao      string `json:"regiao"`
	CodigoSetor string `json:"codigo_setor"`
	Login       string `json:"login"`
	Senha       string `json:"senha"`
}

func opcional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if !ator.Perfil.PodeEditar() {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	var payload uvisPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	user, err := h.service.CreateUVIS(ctx, CreateInput{
		Nome:        payload.Nome,
		Regiao:      opcional(payload.Regiao),
		CodigoSetor: opcional(payload.CodigoSetor),
		Login:       payload.Login,
		Senha:       payload.Senha,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"uvis": user})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if !ator.Perfil.Elevado() {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	q := r.URL.Query()
	filtro := ListFilter{
		Busca:       q.Get("busca"),
		Regiao:      q.Get("regiao"),
		CodigoSetor: q.Get("codigo_setor"),
	}
	filtro.Limit, _ = strconv.Atoi(q.Get("limit"))
	filtro.Offset, _ = strconv.Atoi(q.Get("offset"))

	itens, total, err := h.service.ListUVIS(ctx, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uvis": itens, "total": total})
}

func (h *Handler) handleResumo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if !ator.Perfil.Elevado() {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	itens, err := h.service.ListUVISResumo(ctx)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	type resumo struct {
		ID   uuid.UUID `json:"id"`
		Nome string    `json:"nome"`
	}
	out := make([]resumo, 0, len(itens))
	for _, item := range itens {
		out = append(out, resumo{ID: item.ID, Nome: item.Nome})
	}
	writeJSON(w, http.StatusOK, map[string]any{"uvis": out})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if !ator.Perfil.Elevado() {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "conta inválida")
		return
	}

	user, err := h.service.GetByID(ctx, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if user.Perfil != PerfilUVIS {
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uvis": user})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if !ator.Perfil.PodeEditar() {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "conta inválida")
		return
	}

	var payload uvisPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	user, err := h.service.UpdateUVIS(ctx, UpdateInput{
		ID:          id,
		Nome:        payload.Nome,
		Regiao:      opcional(payload.Regiao),
		CodigoSetor: opcional(payload.CodigoSetor),
		Login:       payload.Login,
		Senha:       payload.Senha,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uvis": user})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if ator.Perfil != PerfilAdmin {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "conta inválida")
		return
	}

	if err := h.service.DeleteUVIS(ctx, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func atorDoContexto(ctx context.Context) (Ator, error) {
	return AtorFromClaims(
		httpmiddleware.GetSubject(ctx),
		httpmiddleware.GetPerfil(ctx),
		httpmiddleware.GetPilotoID(ctx),
	)
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error())
	case errors.Is(err, ErrLoginDuplicado):
		writeError(w, http.StatusConflict, "CONFLICT", ErrLoginDuplicado.Error())
	case errors.Is(err, ErrPossuiSolicitacoes):
		writeError(w, http.StatusConflict, "CONFLICT", ErrPossuiSolicitacoes.Error())
	case util.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		log.Error().Err(err).Msg("usuario handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
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
