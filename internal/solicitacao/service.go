package solicitacao

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ijasaude/vistoria/internal/usuario"
	"github.com/ijasaude/vistoria/internal/util"
)

// Store abstrai o repositório para permitir stubs nos testes.
type Store interface {
	Get(ctx context.Context, escopo Escopo, id uuid.UUID) (*Solicitacao, error)
	List(ctx context.Context, escopo Escopo, filtro ListFilter) ([]Solicitacao, int, error)
	ListPorPeriodo(ctx context.Context, escopo Escopo, inicio, fim string) ([]Solicitacao, error)
	Create(ctx context.Context, s *Solicitacao) error
	UpdateDecisao(ctx context.Context, s *Solicitacao) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	PilotoExiste(ctx context.Context, id uuid.UUID) (bool, error)
	OpcoesFiltro(ctx context.Context, escopo Escopo) (focos, tipos, unidades []string, err error)
}

// Uploader persiste e remove anexos.
type Uploader interface {
	Salvar(ctx context.Context, nome string, conteudo []byte) (string, error)
	Remover(ctx context.Context, path string) error
}

// Notificador registra avisos derivados do fluxo. Falhas são logadas e
// não interrompem a operação principal.
type Notificador interface {
	NotificarCriacao(ctx context.Context, s *Solicitacao)
	NotificarDecisao(ctx context.Context, s *Solicitacao, statusAnterior string)
	NotificarConclusao(ctx context.Context, s *Solicitacao)
}

// extensoesPermitidas para anexos de solicitação.
var extensoesPermitidas = map[string]struct{}{
	"pdf": {}, "png": {}, "jpg": {}, "jpeg": {},
	"doc": {}, "docx": {}, "xls": {}, "xlsx": {},
}

type Service struct {
	repo       Store
	uploader   Uploader
	notificar  Notificador
}

func NewService(repo Store, uploader Uploader, notificar Notificador) *Service {
	return &Service{repo: repo, uploader: uploader, notificar: notificar}
}

// Criar abre uma solicitação em nome da UVIS autenticada, sempre PENDENTE.
func (s *Service) Criar(ctx context.Context, ator usuario.Ator, in CreateInput) (*Solicitacao, error) {
	if ator.Perfil != usuario.PerfilUVIS {
		return nil, usuario.ErrForbidden
	}

	if err := util.RequireString(in.Foco, "foco"); err != nil {
		return nil, err
	}
	for campo, valor := range map[string]string{
		"cep": in.CEP, "logradouro": in.Logradouro,
		"bairro": in.Bairro, "cidade": in.Cidade, "uf": in.UF,
	} {
		if err := util.RequireString(valor, campo); err != nil {
			return nil, err
		}
	}
	data, err := time.Parse("2006-01-02", in.DataAgendamento)
	if err != nil {
		return nil, util.ErrCampoInvalido("data_agendamento")
	}
	if _, err := time.Parse("15:04", in.HoraAgendamento); err != nil {
		return nil, util.ErrCampoInvalido("hora_agendamento")
	}

	sol := &Solicitacao{
		ID:              uuid.New(),
		DataAgendamento: data,
		HoraAgendamento: in.HoraAgendamento,
		Foco:            strings.TrimSpace(in.Foco),
		Criadouro:       in.Criadouro,
		ApoioCET:        in.ApoioCET,
		CEP:             strings.TrimSpace(in.CEP),
		Logradouro:      strings.TrimSpace(in.Logradouro),
		Bairro:          strings.TrimSpace(in.Bairro),
		Cidade:          strings.TrimSpace(in.Cidade),
		UF:              strings.ToUpper(strings.TrimSpace(in.UF)),
		Status:          StatusPendente,
		UsuarioID:       ator.ID,
		CriadoEm:        time.Now(),
	}
	sol.TipoVisita = opcional(in.TipoVisita)
	sol.AlturaVoo = opcional(in.AlturaVoo)
	sol.Observacao = opcional(in.Observacao)
	sol.Numero = opcional(in.Numero)
	sol.Complemento = opcional(in.Complemento)
	sol.Latitude = opcional(in.Latitude)
	sol.Longitude = opcional(in.Longitude)

	if err := s.repo.Create(ctx, sol); err != nil {
		return nil, err
	}
	if s.notificar != nil {
		s.notificar.NotificarCriacao(ctx, sol)
	}
	log.Info().Str("solicitacao", sol.ID.String()).Str("uvis", ator.ID.String()).
		Msg("solicitação criada")
	return sol, nil
}

// Get busca uma solicitação respeitando a visibilidade do ator.
func (s *Service) Get(ctx context.Context, ator usuario.Ator, id uuid.UUID) (*Solicitacao, error) {
	escopo, err := EscopoDoAtor(ator)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, escopo, id)
}

// List pagina a listagem do ator com os filtros pedidos.
func (s *Service) List(ctx context.Context, ator usuario.Ator, filtro ListFilter) ([]Solicitacao, int, error) {
	escopo, err := EscopoDoAtor(ator)
	if err != nil {
		return nil, 0, err
	}
	if filtro.Limit <= 0 || filtro.Limit > 100 {
		filtro.Limit = 20
	}
	if filtro.Offset < 0 {
		filtro.Offset = 0
	}
	return s.repo.List(ctx, escopo, filtro)
}

// ListPorPeriodo alimenta agenda e relatórios com o mesmo escopo da listagem.
func (s *Service) ListPorPeriodo(ctx context.Context, ator usuario.Ator, inicio, fim string) ([]Solicitacao, error) {
	escopo, err := EscopoDoAtor(ator)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPorPeriodo(ctx, escopo, inicio, fim)
}

// OpcoesFiltro devolve os valores distintos para os seletores da listagem.
func (s *Service) OpcoesFiltro(ctx context.Context, ator usuario.Ator) (focos, tipos, unidades []string, err error) {
	escopo, err := EscopoDoAtor(ator)
	if err != nil {
		return nil, nil, nil, err
	}
	return s.repo.OpcoesFiltro(ctx, escopo)
}

// AtualizarDecisao aplica a decisão administrativa de uma vez só. Se a
// validação falhar nada é persistido, inclusive a troca de anexo.
func (s *Service) AtualizarDecisao(ctx context.Context, ator usuario.Ator, in AdminUpdateInput) (*Solicitacao, error) {
	if !ator.Perfil.PodeEditar() {
		return nil, usuario.ErrForbidden
	}

	sol, err := s.repo.Get(ctx, Escopo{}, in.ID)
	if err != nil {
		return nil, err
	}
	statusAnterior := sol.Status

	if in.Status != nil {
		sol.Status = strings.ToUpper(strings.TrimSpace(*in.Status))
	}
	if in.Protocolo != nil {
		sol.Protocolo = opcional(*in.Protocolo)
	}
	if in.Justificativa != nil {
		sol.Justificativa = opcional(*in.Justificativa)
	}
	if in.Latitude != nil {
		sol.Latitude = opcional(*in.Latitude)
	}
	if in.Longitude != nil {
		sol.Longitude = opcional(*in.Longitude)
	}
	switch {
	case in.LimparPiloto:
		sol.PilotoID = nil
		sol.PilotoNome = nil
	case in.PilotoID != nil:
		ok, err := s.repo.PilotoExiste(ctx, *in.PilotoID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrPilotoInexistente
		}
		sol.PilotoID = in.PilotoID
	}

	// Aprovar exige piloto responsável; a decisão inteira é rejeitada.
	if EstaAprovada(sol.Status) && sol.PilotoID == nil {
		return nil, ErrAprovacaoSemPiloto
	}

	var anexoAnterior *string
	if in.Anexo != nil {
		ext := extensao(in.Anexo.NomeOriginal)
		if _, ok := extensoesPermitidas[ext]; !ok {
			return nil, ErrExtensaoNaoPermitida
		}
		nome := "sol_" + sol.ID.String() + "_" + uuid.NewString() + "." + ext
		path, err := s.uploader.Salvar(ctx, nome, in.Anexo.Conteudo)
		if err != nil {
			return nil, err
		}
		anexoAnterior = sol.AnexoPath
		sol.AnexoPath = &path
		original := in.Anexo.NomeOriginal
		sol.AnexoNome = &original
	}

	if err := s.repo.UpdateDecisao(ctx, sol); err != nil {
		// Não deixa o arquivo novo órfão quando a gravação falha.
		if in.Anexo != nil && sol.AnexoPath != nil {
			if rmErr := s.uploader.Remover(ctx, *sol.AnexoPath); rmErr != nil {
				log.Warn().Err(rmErr).Str("path", *sol.AnexoPath).Msg("falha ao limpar anexo novo")
			}
		}
		return nil, err
	}

	// Remoção do anexo substituído é melhor esforço, após a gravação.
	if anexoAnterior != nil && *anexoAnterior != "" {
		if err := s.uploader.Remover(ctx, *anexoAnterior); err != nil {
			log.Warn().Err(err).Str("path", *anexoAnterior).Msg("falha ao remover anexo antigo")
		}
	}

	if s.notificar != nil && sol.Status != statusAnterior {
		s.notificar.NotificarDecisao(ctx, sol, statusAnterior)
	}
	log.Info().Str("solicitacao", sol.ID.String()).
		Str("status", sol.Status).Str("por", ator.ID.String()).
		Msg("decisão registrada")
	return sol, nil
}

// Concluir fecha a ordem de serviço pelo piloto responsável. Só
// solicitações no conjunto aprovado podem ser concluídas.
func (s *Service) Concluir(ctx context.Context, ator usuario.Ator, id uuid.UUID) (*Solicitacao, error) {
	if ator.Perfil != usuario.PerfilPiloto || ator.PilotoID == nil {
		return nil, usuario.ErrForbidden
	}
	sol, err := s.repo.Get(ctx, Escopo{}, id)
	if err != nil {
		return nil, err
	}
	if sol.PilotoID == nil || *sol.PilotoID != *ator.PilotoID {
		return nil, ErrNotFound
	}
	if !EstaAprovada(sol.Status) {
		return nil, ErrNaoAprovada
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusConcluido); err != nil {
		return nil, err
	}
	sol.Status = StatusConcluido
	if s.notificar != nil {
		s.notificar.NotificarConclusao(ctx, sol)
	}
	log.Info().Str("solicitacao", id.String()).Str("piloto", ator.PilotoID.String()).
		Msg("ordem de serviço concluída")
	return sol, nil
}

// Excluir remove a solicitação definitivamente. Restrito ao admin.
func (s *Service) Excluir(ctx context.Context, ator usuario.Ator, id uuid.UUID) error {
	if ator.Perfil != usuario.PerfilAdmin {
		return usuario.ErrForbidden
	}
	sol, err := s.repo.Get(ctx, Escopo{}, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if sol.AnexoPath != nil && *sol.AnexoPath != "" {
		if err := s.uploader.Remover(ctx, *sol.AnexoPath); err != nil {
			log.Warn().Err(err).Str("path", *sol.AnexoPath).Msg("falha ao remover anexo")
		}
	}
	log.Info().Str("solicitacao", id.String()).Msg("solicitação excluída")
	return nil
}

// Anexo devolve caminho e nome original do anexo, dentro do escopo do ator.
func (s *Service) Anexo(ctx context.Context, ator usuario.Ator, id uuid.UUID) (path, nome string, err error) {
	sol, err := s.Get(ctx, ator, id)
	if err != nil {
		return "", "", err
	}
	if sol.AnexoPath == nil || *sol.AnexoPath == "" {
		return "", "", ErrSemAnexo
	}
	nome = filepath.Base(*sol.AnexoPath)
	if sol.AnexoNome != nil && *sol.AnexoNome != "" {
		nome = *sol.AnexoNome
	}
	return *sol.AnexoPath, nome, nil
}

func opcional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func extensao(nome string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(nome), "."))
}
