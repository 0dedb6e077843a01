package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ijasaude/vistoria/internal/auth"
)

type contextKey string

const (
	ContextKeySubject  contextKey = "subject"
	ContextKeyAudience contextKey = "audience"
	ContextKeyPerfil   contextKey = "perfil"
	ContextKeyPilotoID contextKey = "piloto_id"
)

// Auth valida JWT de acesso e injeta claims no contexto.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "AUTH", "token ausente")
				return
			}

			claims, err := jwtManager.ParseAndValidate(parts[1])
			if err != nil {
				writeError(w, http.StatusUnauthorized, "AUTH", "token inválido")
				return
			}

			if len(claims.Audience) == 0 {
				writeError(w, http.StatusUnauthorized, "AUTH", "audience inválida")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeySubject, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyAudience, claims.Audience[0])
			ctx = context.WithValue(ctx, ContextKeyPerfil, claims.Perfil)
			if claims.PilotoID != nil {
				ctx = context.WithValue(ctx, ContextKeyPilotoID, *claims.PilotoID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSubject recupera subject do contexto.
func GetSubject(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeySubject).(string)
	return val
}

// GetAudience recupera audience do contexto.
func GetAudience(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyAudience).(string)
	return val
}

// GetPerfil recupera o perfil do contexto.
func GetPerfil(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyPerfil).(string)
	return val
}

// GetPilotoID recupera o vínculo de piloto, quando houver.
func GetPilotoID(ctx context.Context) *string {
	val, ok := ctx.Value(ContextKeyPilotoID).(string)
	if !ok || val == "" {
		return nil
	}
	return &val
}

// RequirePerfil restringe a rota aos perfis informados.
func RequirePerfil(perfis ...string) func(http.Handler) http.Handler {
	permitidos := make(map[string]struct{}, len(perfis))
	for _, p := range perfis {
		permitidos[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perfil := strings.ToLower(GetPerfil(r.Context()))
			if _, ok := permitidos[perfil]; !ok {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "sem acesso")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": nil,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
