package util

import (
	"errors"
	"net/mail"
	"strings"
)

// ValidationError marca falhas de entrada do usuário, mapeadas para 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// IsValidation informa se o erro veio de validação de entrada.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidateEmail retorna erro para e-mails inválidos.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{msg: "email obrigatório"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{msg: "email inválido"}
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{msg: "senha deve ter pelo menos 8 caracteres"}
	}
	return nil
}

// RequireString garante string não vazia.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{msg: field + " obrigatório"}
	}
	return nil
}

// ErrCampoInvalido padroniza erros de formato de campo.
func ErrCampoInvalido(field string) error {
	return &ValidationError{msg: field + " inválido"}
}
