package faq

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/ijasaude/vistoria/internal/http/middleware"
	"github.com/ijasaude/vistoria/internal/usuario"
)

// Handler expõe os dois assistentes.
type Handler struct {
	uvis  *Assistente
	admin *Assistente
}

func NewHandler() *Handler {
	return &Handler{
		uvis:  NewAssistente(BaseUVIS()),
		admin: NewAssistente(BaseAdmin()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/faq", func(r chi.Router) {
		r.Post("/uvis", h.handlePergunta(h.uvis, usuario.PerfilUVIS))
		r.Post("/admin", h.handlePergunta(h.admin, usuario.PerfilAdmin,
			usuario.PerfilOperario, usuario.PerfilVisualizador))
	})
}

func (h *Handler) handlePergunta(assistente *Assistente, perfis ...usuario.Perfil) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		perfil := httpmiddleware.GetPerfil(r.Context())
		permitido := false
		for _, p := range perfis {
			if strings.EqualFold(perfil, string(p)) {
				permitido = true
				break
			}
		}
		if !permitido {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
			return
		}

		var payload struct {
			Pergunta string `json:"pergunta"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION", "payload inválido")
			return
		}
		if strings.TrimSpace(payload.Pergunta) == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION", "pergunta obrigatória")
			return
		}

		writeJSON(w, http.StatusOK, assistente.Responder(payload.Pergunta))
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
