package cliente

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ijasaude/vistoria/internal/br"
	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// Handler expõe as rotas do cadastro de clientes.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/clientes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/exportar", h.handleExportar)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Delete("/{id}", h.handleDelete)
	})
}

type clientePayload struct {
	Nome        string `json:"nome"`
	Documento   string `json:"documento"`
	Contato     string `json:"contato"`
	Telefone    string `json:"telefone"`
	Email       string `json:"email"`
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	UF          string `json:"uf"`
	Numero      string `json:"numero"`
	Complemento string `json:"complemento"`
}

func (p clientePayload) input() CreateInput {
	return CreateInput{
		Nome: p.Nome, Documento: p.Documento, Contato: p.Contato,
		Telefone: p.Telefone, Email: p.Email,
		CEP: p.CEP, Logradouro: p.Logradouro, Bairro: p.Bairro,
		Cidade: p.Cidade, UF: p.UF, Numero: p.Numero, Complemento: p.Complemento,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	var payload clientePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	c, err := h.service.Create(ctx, ator, payload.input())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"cliente": c})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	q := r.URL.Query()
	filtro := ListFilter{
		Busca:  q.Get("busca"),
		Cidade: q.Get("cidade"),
		UF:     q.Get("uf"),
		Ordem:  q.Get("ordem"),
	}
	filtro.Limit, _ = strconv.Atoi(q.Get("limit"))
	filtro.Offset, _ = strconv.Atoi(q.Get("offset"))

	itens, total, err := h.service.List(ctx, ator, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clientes": itens, "total": total})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "cliente inválido")
		return
	}

	c, err := h.service.GetByID(ctx, ator, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cliente": c})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "cliente inválido")
		return
	}

	var payload clientePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
		return
	}

	c, err := h.service.Update(ctx, ator, UpdateInput{ID: id, CreateInput: payload.input()})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cliente": c})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "cliente inválido")
		return
	}

	if err := h.service.Delete(ctx, ator, id); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleExportar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	q := r.URL.Query()
	itens, err := h.service.ListTodos(ctx, ator, ListFilter{
		Busca:  q.Get("busca"),
		Cidade: q.Get("cidade"),
		UF:     q.Get("uf"),
	})
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
	w.Header().Set("Content-Disposition", `attachment; filename="clientes.xlsx"`)
	_, _ = w.Write(buf.Bytes())
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
		writeError(w, http.StatusNotFound, "NOT_FOUND", "cliente não encontrado")
	case errors.Is(err, ErrDocumentoDuplicado):
		writeError(w, http.StatusConflict, "CONFLICT", ErrDocumentoDuplicado.Error())
	case errors.Is(err, br.ErrDocumentoTamanho),
		errors.Is(err, br.ErrCPFInvalido),
		errors.Is(err, br.ErrCNPJInvalido):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION", err.Error())
	case util.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("cliente handler error")
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
