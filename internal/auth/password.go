package auth

import (
	"github.com/alexedwards/argon2id"
)

// Parâmetros do Argon2id usados em todos os hashes de senha do sistema.
var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o hash Argon2id da senha; os parâmetros ficam embutidos no
// próprio hash.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com um hash gerado por Hash.
func Verify(password, encodedHash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
