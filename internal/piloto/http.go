package piloto

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// ContaLoader carrega a conta do ator para resolver a região de unidades UVIS.
type ContaLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (usuario.Usuario, error)
}

// Handler expõe as rotas do cadastro de pilotos.
type Handler struct {
	service *Service
	contas  ContaLoader
}

func NewHandler(service *Service, contas ContaLoader) *Handler {
	return &Handler{service: service, contas: contas}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/pilotos", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/regioes", h.handleRegioes)
		r.Get("/exportar", h.handleExportar)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
		r.Get("/{id}/vinculos", h.handleListVinculos)
		r.Post("/{id}/vinculos", h.handleVincular)
		r.Delete("/{id}/vinculos/{uvisID}", h.handleDesvincular)
	})
}

type pilotoPayload struct {
	Nome     string `json:"nome"`
	Regiao   string `json:"regiao"`
	Telefone string `json:"telefone"`
	Login    string `json:"login"`
	Senha    string `json:"senha"`
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

	var payload pilotoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	p, err := h.service.Create(ctx, CreateInput{
		Nome: payload.Nome, Regiao: payload.Regiao, Telefone: payload.Telefone,
		Login: payload.Login, Senha: payload.Senha,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"piloto": p})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	regiaoUVIS, err := h.escopoDeLeitura(ctx, ator)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	q := r.URL.Query()
	filtro := ListFilter{
		Busca:    q.Get("busca"),
		Regiao:   q.Get("regiao"),
		Telefone: q.Get("telefone"),
		Sort:     q.Get("sort"),
	}
	filtro.Limit, _ = strconv.Atoi(q.Get("limit"))
	filtro.Offset, _ = strconv.Atoi(q.Get("offset"))

	itens, total, err := h.service.List(ctx, filtro, regiaoUVIS)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pilotos": itens, "total": total})
}

// escopoDeLeitura resolve a restrição de leitura do ator: perfis de
// gestão leem tudo, UVIS só enxerga pilotos da própria região (que vem
// da conta), os demais não têm acesso.
func (h *Handler) escopoDeLeitura(ctx context.Context, ator usuario.Ator) (*string, error) {
	switch {
	case ator.Perfil.Elevado():
		return nil, nil
	case ator.Perfil == usuario.PerfilUVIS:
		conta, err := h.contas.GetByID(ctx, ator.ID)
		if err != nil {
			return nil, err
		}
		regiao := ""
		if conta.Regiao != nil {
			regiao = *conta.Regiao
		}
		return &regiao, nil
	default:
		return nil, usuario.ErrForbidden
	}
}

func (h *Handler) handleExportar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	regiaoUVIS, err := h.escopoDeLeitura(ctx, ator)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	q := r.URL.Query()
	itens, _, err := h.service.List(ctx, ListFilter{
		Busca:    q.Get("busca"),
		Regiao:   q.Get("regiao"),
		Telefone: q.Get("telefone"),
	}, regiaoUVIS)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	buf, err := ExportarXLSX(itens)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pilotos.xlsx"`)
	_, _ = w.Write(buf.Bytes())
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
		writeError(w, http.StatusBadRequest, "VALIDATION", "piloto inválido")
		return
	}

	p, err := h.service.GetByID(ctx, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"piloto": p})
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
		writeError(w, http.StatusBadRequest, "VALIDATION", "piloto inválido")
		return
	}

	var payload pilotoPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	p, err := h.service.Update(ctx, UpdateInput{
		ID: id, Nome: payload.Nome, Regiao: payload.Regiao,
		Telefone: payload.Telefone, Login: payload.Login, Senha: payload.Senha,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"piloto": p})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}
	if ator.Perfil != usuario.PerfilAdmin {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "piloto inválido")
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleRegioes(w http.ResponseWriter, r *http.Request) {
	regioes := make([]string, 0, len(Regioes))
	for regiao := range Regioes {
		regioes = append(regioes, regiao)
	}
	sort.Strings(regioes)
	writeJSON(w, http.StatusOK, map[string]any{"regioes": regioes})
}

func (h *Handler) handleListVinculos(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusBadRequest, "VALIDATION", "piloto inválido")
		return
	}

	vinculos, err := h.service.ListVinculos(ctx, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vinculos": vinculos})
}

func (h *Handler) handleVincular(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusBadRequest, "VALIDATION", "piloto inválido")
		return
	}

	var payload struct {
		UVISUsuarioID string `json:"uvis_usuario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}
	uvisID, err := uuid.Parse(payload.UVISUsuarioID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "uvis_usuario_id inválido")
		return
	}

	v, err := h.service.Vincular(ctx, id, uvisID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"vinculo": v})
}

func (h *Handler) handleDesvincular(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusBadRequest, "VALIDATION", "piloto inválido")
		return
	}
	uvisID, err := uuid.Parse(chi.URLParam(r, "uvisID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "uvis inválida")
		return
	}

	if err := h.service.Desvincular(ctx, id, uvisID); err != nil {
		handleDomainError(w, err)
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
	case errors.Is(err, usuario.ErrForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", ErrNotFound.Error())
	case errors.Is(err, ErrDuplicado), errors.Is(err, ErrVinculoDuplicado):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, ErrRegiaoInvalida), errors.Is(err, ErrTelefoneInvalido):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
	case util.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("piloto handler error")
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
