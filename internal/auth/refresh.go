package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidRefresh indica token de refresh desconhecido, expirado ou
// já rotacionado.
var ErrInvalidRefresh = errors.New("refresh token inválido")

// GenerateRefreshToken cria o token aleatório entregue ao cliente e o
// hash que vai para o Redis. Só o hash é persistido.
func GenerateRefreshToken() (raw string, hashed string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = base64.RawURLEncoding.EncodeToString(buf)
	hashed = HashRefreshToken(raw)
	return raw, hashed, nil
}

// HashRefreshToken devolve o SHA-256 do token em base64 URL-safe.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RefreshRedisKey monta a chave Redis do estado do refresh, separada
// por audiência.
func RefreshRedisKey(audience, hash string) string {
	return fmt.Sprintf("refresh:%s:%s", audience, hash)
}
