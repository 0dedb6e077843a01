package agenda

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// Handler expõe as rotas da agenda.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/agenda", func(r chi.Router) {
		r.Get("/", h.handleEventos)
		r.Get("/exportar", h.handleExportar)
	})
}

func mesDaQuery(r *http.Request) string {
	mes := r.URL.Query().Get("mes")
	if mes == "" {
		mes = time.Now().Format("2006-01")
	}
	return mes
}

func (h *Handler) handleEventos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	eventos, err := h.service.EventosDoMes(ctx, ator, mesDaQuery(r))
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"eventos": eventos})
}

func (h *Handler) handleExportar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ator, err := atorDoContexto(ctx)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "AUTH", "identificação inválida")
		return
	}

	mes := mesDaQuery(r)
	linhas, err := h.service.LinhasDoMes(ctx, ator, mes)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	buf, err := ExportarXLSX(mes, linhas)
	if err != nil {
		log.Error().Err(err).Msg("agenda handler error")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "erro interno")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="agenda-`+mes+`.xlsx"`)
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
	case util.IsValidation(err):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	default:
		log.Error().Err(err).Msg("agenda handler error")
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
