package solicitacao

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// maxAnexoBytes limita o upload de anexos.
const maxAnexoBytes = 10 << 20

// Handler expõe as rotas de solicitações.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/solicitacoes", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/opcoes", h.handleOpcoes)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleAtualizarDecisao)
		r.Delete("/{id}", h.handleExcluir)
		r.Post("/{id}/concluir", h.handleConcluir)
		r.Get("/{id}/anexo", h.handleAnexo)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	var payload CreateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido", nil)
		return
	}

	sol, err := h.service.Criar(ctx, ator, payload)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /solicitacoes", ator.ID, start)
	writeJSON(w, http.StatusCreated, map[string]any{"solicitacao": sol})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	q := r.URL.Query()
	filtro := ListFilter{
		Status:     q.Get("status"),
		TipoVisita: q.Get("tipo_visita"),
		Foco:       q.Get("foco"),
		Unidade:    q.Get("unidade"),
		Regiao:     q.Get("regiao"),
		AnoMes:     q.Get("mes"),
	}
	if v := q.Get("limit"); v != "" {
		filtro.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filtro.Offset, _ = strconv.Atoi(v)
	}
	if v := q.Get("uvis"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "uvis inválida", nil)
			return
		}
		filtro.UVISID = &id
	}

	itens, total, err := h.service.List(ctx, ator, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "GET /solicitacoes", ator.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"solicitacoes": itens, "total": total})
}

func (h *Handler) handleOpcoes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	focos, tipos, unidades, err := h.service.OpcoesFiltro(ctx, ator)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   StatusConhecidos,
		"focos":    focos,
		"tipos":    tipos,
		"unidades": unidades,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "solicitação inválida", nil)
		return
	}

	sol, err := h.service.Get(ctx, ator, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"solicitacao": sol})
}

// handleAtualizarDecisao aceita JSON ou multipart/form-data (quando há anexo).
func (h *Handler) handleAtualizarDecisao(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "solicitação inválida", nil)
		return
	}

	in, err := h.decodeDecisao(r, id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	sol, err := h.service.AtualizarDecisao(ctx, ator, *in)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "PUT /solicitacoes", ator.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"solicitacao": sol})
}

func (h *Handler) decodeDecisao(r *http.Request, id uuid.UUID) (*AdminUpdateInput, error) {
	in := AdminUpdateInput{ID: id}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAnexoBytes); err != nil {
			return nil, errors.New("formulário inválido")
		}
		form := r.MultipartForm.Value
		campo := func(nome string) *string {
			vals, ok := form[nome]
			if !ok || len(vals) == 0 {
				return nil
			}
			v := vals[0]
			return &v
		}
		in.Status = campo("status")
		in.Protocolo = campo("protocolo")
		in.Justificativa = campo("justificativa")
		in.Latitude = campo("latitude")
		in.Longitude = campo("longitude")
		if v := campo("piloto_id"); v != nil {
			if *v == "" {
				in.LimparPiloto = true
			} else {
				pid, err := uuid.Parse(*v)
				if err != nil {
					return nil, errors.New("piloto inválido")
				}
				in.PilotoID = &pid
			}
		}
		if file, header, err := r.FormFile("anexo"); err == nil {
			defer file.Close()
			conteudo, err := io.ReadAll(io.LimitReader(file, maxAnexoBytes))
			if err != nil {
				return nil, errors.New("falha ao ler anexo")
			}
			in.Anexo = &AnexoInput{NomeOriginal: header.Filename, Conteudo: conteudo}
		}
		return &in, nil
	}

	var payload struct {
		Status        *string `json:"status"`
		Protocolo     *string `json:"protocolo"`
		Justificativa *string `json:"justificativa"`
		Latitude      *string `json:"latitude"`
		Longitude     *string `json:"longitude"`
		PilotoID      *string `json:"piloto_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, errors.New("payload inválido")
	}
	in.Status = payload.Status
	in.Protocolo = payload.Protocolo
	in.Justificativa = payload.Justificativa
	in.Latitude = payload.Latitude
	in.Longitude = payload.Longitude
	if payload.PilotoID != nil {
		if *payload.PilotoID == "" {
			in.LimparPiloto = true
		} else {
			pid, err := uuid.Parse(*payload.PilotoID)
			if err != nil {
				return nil, errors.New("piloto inválido")
			}
			in.PilotoID = &pid
		}
	}
	return &in, nil
}

func (h *Handler) handleConcluir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "solicitação inválida", nil)
		return
	}

	sol, err := h.service.Concluir(ctx, ator, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "POST /solicitacoes/concluir", ator.ID, start)
	writeJSON(w, http.StatusOK, map[string]any{"solicitacao": sol})
}

func (h *Handler) handleExcluir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "solicitação inválida", nil)
		return
	}

	if err := h.service.Excluir(ctx, ator, id); err != nil {
		handleDomainError(w, err)
		return
	}

	logRequest(ctx, "DELETE /solicitacoes", ator.ID, start)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAnexo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "solicitação inválida", nil)
		return
	}

	path, nome, err := h.service.Anexo(ctx, ator, id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		http.Redirect(w, r, path, http.StatusTemporaryRedirect)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+nome+`"`)
	http.ServeFile(w, r, path)
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
		writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso", nil)
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "solicitação não encontrada", nil)
	case errors.Is(err, ErrSemAnexo):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "solicitação sem anexo", nil)
	case errors.Is(err, ErrAprovacaoSemPiloto):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION", ErrAprovacaoSemPiloto.Error(), nil)
	case errors.Is(err, ErrNaoAprovada):
		writeError(w, http.StatusConflict, "CONFLICT", ErrNaoAprovada.Error(), nil)
	case errors.Is(err, ErrPilotoInexistente):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION", ErrPilotoInexistente.Error(), nil)
	case errors.Is(err, ErrExtensaoNaoPermitida):
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION", ErrExtensaoNaoPermitida.Error(), nil)
	case util.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("solicitacao handler error")
	writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno", nil)
}

func logRequest(ctx context.Context, label string, userID uuid.UUID, start time.Time) {
	logger := log.Ctx(ctx)
	if logger == nil {
		logger = &log.Logger
	}
	reqID := chimiddleware.GetReqID(ctx)
	logger.Info().Str("request_id", reqID).Str("user_id", userID.String()).Str("label", label).Dur("duration", time.Since(start)).Msg("solicitacao_request")
}

// Helpers de resposta JSON compatíveis com o resto do projeto.
type successEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

type errorEnvelope struct {
	Data  any            `json:"data"`
	Error *errorResponse `json:"error"`
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(successEnvelope{Data: payload, Error: nil})
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Data: nil, Error: &errorResponse{Code: code, Message: message, Details: details}})
}
