package cep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ijasaude/vistoria/internal/br"
)

var (
	// ErrCEPInvalido indica CEP fora do formato de 8 dígitos.
	ErrCEPInvalido = errors.New("cep inválido")
	// ErrNaoEncontrado indica CEP bem formado mas inexistente.
	ErrNaoEncontrado = errors.New("cep não encontrado")
	// ErrIndisponivel indica falha dos dois provedores de consulta.
	ErrIndisponivel = errors.New("consulta de cep indisponível")
)

// Endereco é o resultado normalizado da consulta.
type Endereco struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Cidade      string `json:"cidade"`
	UF          string `json:"uf"`
}

// Client consulta CEP no provedor primário com fallback automático.
type Client struct {
	httpClient  *http.Client
	primaryURL  string
	fallbackURL string
}

// Config descreve os provedores de consulta.
type Config struct {
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		primaryURL:  strings.TrimRight(cfg.PrimaryURL, "/"),
		fallbackURL: strings.TrimRight(cfg.FallbackURL, "/"),
	}
}

// Buscar resolve o endereço do CEP. O provedor primário (ViaCEP) é
// consultado primeiro; em falha de rede ou resposta inválida o fallback
// (BrasilAPI) assume. CEP inexistente não aciona o fallback.
func (c *Client) Buscar(ctx context.Context, cep string) (*Endereco, error) {
	digitos := br.SomenteDigitos(cep)
	if len(digitos) != 8 {
		return nil, ErrCEPInvalido
	}

	end, err := c.buscarViaCEP(ctx, digitos)
	if err == nil || errors.Is(err, ErrNaoEncontrado) {
		return end, err
	}
	log.Warn().Err(err).Str("cep", digitos).Msg("provedor primário de cep falhou")

	end, err2 := c.buscarBrasilAPI(ctx, digitos)
	if err2 == nil || errors.Is(err2, ErrNaoEncontrado) {
		return end, err2
	}
	log.Warn().Err(err2).Str("cep", digitos).Msg("fallback de cep falhou")
	return nil, ErrIndisponivel
}

func (c *Client) buscarViaCEP(ctx context.Context, digitos string) (*Endereco, error) {
	var payload struct {
		CEP         string `json:"cep"`
		Logradouro  string `json:"logradouro"`
		Complemento string `json:"complemento"`
		Bairro      string `json:"bairro"`
		Localidade  string `json:"localidade"`
		UF          string `json:"uf"`
		Erro        bool   `json:"erro"`
	}
	if err := c.getJSON(ctx, c.primaryURL+"/"+digitos+"/json/", &payload); err != nil {
		return nil, err
	}
	if payload.Erro {
		return nil, ErrNaoEncontrado
	}
	return &Endereco{
		CEP:         br.FormatarCEP(digitos),
		Logradouro:  payload.Logradouro,
		Complemento: payload.Complemento,
		Bairro:      payload.Bairro,
		Cidade:      payload.Localidade,
		UF:          payload.UF,
	}, nil
}

func (c *Client) buscarBrasilAPI(ctx context.Context, digitos string) (*Endereco, error) {
	var payload struct {
		CEP          string `json:"cep"`
		State        string `json:"state"`
		City         string `json:"city"`
		Neighborhood string `json:"neighborhood"`
		Street       string `json:"street"`
		Complement   string `json:"complement"`
	}
	if err := c.getJSON(ctx, c.fallbackURL+"/"+digitos, &payload); err != nil {
		return nil, err
	}
	return &Endereco{
		CEP:         br.FormatarCEP(digitos),
		Logradouro:  payload.Street,
		Complemento: payload.Complement,
		Bairro:      payload.Neighborhood,
		Cidade:      payload.City,
		UF:          payload.State,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNaoEncontrado
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cep: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
