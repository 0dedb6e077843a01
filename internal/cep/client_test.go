package cep

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBuscarProvedorPrimario(t *testing.T) {
	primario := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/01001000/json/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cep":"01001-000","logradouro":"Praça da Sé","complemento":"lado ímpar","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`))
	}))
	defer primario.Close()

	c := New(Config{PrimaryURL: primario.URL, FallbackURL: "http://127.0.0.1:0"})

	end, err := c.Buscar(context.Background(), "01001-000")
	if err != nil {
		t.Fatalf("buscar: %v", err)
	}
	if end.Cidade != "São Paulo" || end.UF != "SP" || end.Bairro != "Sé" {
		t.Fatalf("endereço inesperado: %+v", end)
	}
	if end.CEP != "01001-000" {
		t.Fatalf("cep = %q, quer formatado", end.CEP)
	}
	if end.Complemento != "lado ímpar" {
		t.Fatalf("complemento = %q", end.Complemento)
	}
}

func TestBuscarUsaFallbackQuandoPrimarioCai(t *testing.T) {
	primario := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primario.Close()

	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/01001000" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cep":"01001000","state":"SP","city":"São Paulo","neighborhood":"Sé","street":"Praça da Sé"}`))
	}))
	defer fallback.Close()

	c := New(Config{PrimaryURL: primario.URL, FallbackURL: fallback.URL})

	end, err := c.Buscar(context.Background(), "01001000")
	if err != nil {
		t.Fatalf("buscar: %v", err)
	}
	if end.Logradouro != "Praça da Sé" || end.UF != "SP" {
		t.Fatalf("endereço inesperado: %+v", end)
	}
}

func TestBuscarCEPInexistenteNaoAcionaFallback(t *testing.T) {
	primario := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"erro":true}`))
	}))
	defer primario.Close()

	chamouFallback := false
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chamouFallback = true
		w.WriteHeader(http.StatusNotFound)
	}))
	defer fallback.Close()

	c := New(Config{PrimaryURL: primario.URL, FallbackURL: fallback.URL})

	_, err := c.Buscar(context.Background(), "99999999")
	if !errors.Is(err, ErrNaoEncontrado) {
		t.Fatalf("err = %v, quer ErrNaoEncontrado", err)
	}
	if chamouFallback {
		t.Fatal("fallback acionado para cep inexistente")
	}
}

func TestBuscarTodosProvedoresForaDoAr(t *testing.T) {
	fora := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer fora.Close()

	c := New(Config{PrimaryURL: fora.URL, FallbackURL: fora.URL})

	_, err := c.Buscar(context.Background(), "01001000")
	if !errors.Is(err, ErrIndisponivel) {
		t.Fatalf("err = %v, quer ErrIndisponivel", err)
	}
}

func TestBuscarValidaFormato(t *testing.T) {
	c := New(Config{PrimaryURL: "http://127.0.0.1:0", FallbackURL: "http://127.0.0.1:0"})

	for _, cep := range []string{"", "123", "123456789", "abcdefgh"} {
		if _, err := c.Buscar(context.Background(), cep); !errors.Is(err, ErrCEPInvalido) {
			t.Errorf("Buscar(%q) err = %v, quer ErrCEPInvalido", cep, err)
		}
	}
}
