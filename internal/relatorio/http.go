package relatorio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
)

// Handler expõe as rotas de relatórios e exportações.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/relatorios", func(r chi.Router) {
		r.Get("/resumo", h.handleResumo)
		r.Get("/anos", h.handleAnos)
		r.Get("/exportar/xlsx", h.handleExportarXLSX)
		r.Get("/exportar/pdf", h.handleExportarPDF)
	})
}

func filtroDaQuery(r *http.Request) (Filtro, error) {
	q := r.URL.Query()
	var filtro Filtro
	filtro.Ano, _ = strconv.Atoi(q.Get("ano"))
	filtro.Mes, _ = strconv.Atoi(q.Get("mes"))
	filtro.Regiao = q.Get("regiao")
	if v := q.Get("uvis"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return Filtro{}, errors.New("uvis inválida")
		}
		filtro.UVISID = &id
	}
	return filtro, nil
}

func (h *Handler) handleResumo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	filtro, err := filtroDaQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	resumo, err := h.service.Resumo(ctx, ator, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"resumo": resumo})
}

func (h *Handler) handleAnos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	anos, err := h.service.AnosDisponiveis(ctx, ator)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"anos": anos})
}

func (h *Handler) handleExportarXLSX(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	filtro, err := filtroDaQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	resumo, err := h.service.Resumo(ctx, ator, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	linhas, err := h.service.Linhas(ctx, ator, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	buf, err := ExportarXLSX(resumo, linhas)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="relatorio.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleExportarPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	filtro, err := filtroDaQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	resumo, err := h.service.Resumo(ctx, ator, filtro)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	titulo := fmt.Sprintf("Relatório de Visitas %d", filtro.Ano)
	if filtro.Ano <= 0 {
		titulo = "Relatório de Visitas"
	}
	paisagem := r.URL.Query().Get("orientacao") == "paisagem"
	buf, err := ExportarPDF(titulo, resumo, paisagem)
	if err != nil {
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="relatorio.pdf"`)
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
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("relatorio handler error")
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
