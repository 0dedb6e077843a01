package notificacao

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ijasaude/vistoria/internal/solicitacao"
	"github.com/ijasaude/vistoria/internal/usuario"
)

// Store abstrai o repositório para permitir stubs nos testes.
type Store interface {
	Criar(ctx context.Context, n *Notificacao) error
	List(ctx context.Context, destino Destino, somenteNaoLidas bool, limit int) ([]Notificacao, error)
	ContarNaoLidas(ctx context.Context, destino Destino) (int, error)
	MarcarLida(ctx context.Context, destino Destino, id uuid.UUID) error
	MarcarTodasLidas(ctx context.Context, destino Destino) error
	Excluir(ctx context.Context, destino Destino, id uuid.UUID) error
	ExcluirTodas(ctx context.Context, destino Destino) error
	ExisteComLink(ctx context.Context, usuarioID uuid.UUID, link string) (bool, error)
	VisitasDoDia(ctx context.Context, usuarioID uuid.UUID, pilotoID *uuid.UUID, dia string) ([]VisitaDoDia, error)
	UsuarioDoPiloto(ctx context.Context, pilotoID uuid.UUID) (*uuid.UUID, error)
}

type Service struct {
	repo Store
}

func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

func destinoDoAtor(ator usuario.Ator) Destino {
	return Destino{
		UsuarioID:  ator.ID,
		Perfil:     string(ator.Perfil),
		Irrestrito: ator.Perfil.Elevado(),
	}
}

// List devolve as notificações do ator, recentes primeiro. Antes de
// consultar, garante os lembretes das visitas de hoje no escopo do
// ator; uma falha na geração não impede a listagem.
func (s *Service) List(ctx context.Context, ator usuario.Ator, somenteNaoLidas bool, limit int) ([]Notificacao, error) {
	if limit <= 0 || limit > 100 {
		limit = 30
	}
	if err := s.GarantirLembretesDoDia(ctx, ator); err != nil {
		log.Warn().Err(err).Str("usuario", ator.ID.String()).Msg("falha ao garantir lembretes do dia")
	}
	return s.repo.List(ctx, destinoDoAtor(ator), somenteNaoLidas, limit)
}

// ContarNaoLidas devolve o total do badge.
func (s *Service) ContarNaoLidas(ctx context.Context, ator usuario.Ator) (int, error) {
	return s.repo.ContarNaoLidas(ctx, destinoDoAtor(ator))
}

// MarcarLida é idempotente: marcar uma já lida não é erro.
func (s *Service) MarcarLida(ctx context.Context, ator usuario.Ator, id uuid.UUID) error {
	return s.repo.MarcarLida(ctx, destinoDoAtor(ator), id)
}

// MarcarTodasLidas limpa o badge do ator.
func (s *Service) MarcarTodasLidas(ctx context.Context, ator usuario.Ator) error {
	return s.repo.MarcarTodasLidas(ctx, destinoDoAtor(ator))
}

// Excluir esconde uma notificação do ator (soft delete).
func (s *Service) Excluir(ctx context.Context, ator usuario.Ator, id uuid.UUID) error {
	return s.repo.Excluir(ctx, destinoDoAtor(ator), id)
}

// ExcluirTodas esconde todas as notificações do ator.
func (s *Service) ExcluirTodas(ctx context.Context, ator usuario.Ator) error {
	return s.repo.ExcluirTodas(ctx, destinoDoAtor(ator))
}

// registrar grava uma notificação; falhas são logadas e engolidas para
// não derrubar a operação que a originou.
func (s *Service) registrar(ctx context.Context, n Notificacao) {
	n.ID = uuid.New()
	n.CriadaEm = Agora()
	if err := s.repo.Criar(ctx, &n); err != nil {
		log.Warn().Err(err).Str("link", n.Link).Msg("falha ao registrar notificação")
	}
}

func perfilPool(p usuario.Perfil) *string {
	v := string(p)
	return &v
}

// NotificarCriacao avisa o pool administrativo sobre a nova solicitação.
func (s *Service) NotificarCriacao(ctx context.Context, sol *solicitacao.Solicitacao) {
	id := sol.ID
	s.registrar(ctx, Notificacao{
		PerfilDestino: perfilPool(usuario.PerfilAdmin),
		SolicitacaoID: &id,
		Titulo:        "Nova solicitação",
		Mensagem: fmt.Sprintf("Nova solicitação de visita para %s às %s (%s).",
			sol.DataAgendamento.Format("02/01/2006"), sol.HoraAgendamento, sol.Bairro),
		Link: "/solicitacoes/" + id.String(),
	})
}

// NotificarDecisao avisa a UVIS dona e, quando aprovada, o piloto designado.
func (s *Service) NotificarDecisao(ctx context.Context, sol *solicitacao.Solicitacao, statusAnterior string) {
	id := sol.ID
	dono := sol.UsuarioID
	s.registrar(ctx, Notificacao{
		UsuarioID:     &dono,
		SolicitacaoID: &id,
		Titulo:        "Solicitação atualizada",
		Mensagem: fmt.Sprintf("Sua solicitação de %s mudou para %s.",
			sol.DataAgendamento.Format("02/01/2006"), sol.Status),
		Link: "/solicitacoes/" + id.String(),
	})

	if !solicitacao.EstaAprovada(sol.Status) || sol.PilotoID == nil {
		return
	}
	usuarioPiloto, err := s.repo.UsuarioDoPiloto(ctx, *sol.PilotoID)
	if err != nil {
		log.Warn().Err(err).Msg("falha ao localizar usuário do piloto")
		return
	}
	if usuarioPiloto == nil {
		return
	}
	s.registrar(ctx, Notificacao{
		UsuarioID:     usuarioPiloto,
		SolicitacaoID: &id,
		Titulo:        "Visita atribuída",
		Mensagem: fmt.Sprintf("Visita atribuída a você em %s às %s (%s).",
			sol.DataAgendamento.Format("02/01/2006"), sol.HoraAgendamento, sol.Bairro),
		Link: "/solicitacoes/" + id.String(),
	})
}

// NotificarConclusao avisa o pool administrativo e a UVIS dona.
func (s *Service) NotificarConclusao(ctx context.Context, sol *solicitacao.Solicitacao) {
	id := sol.ID
	dono := sol.UsuarioID
	msg := fmt.Sprintf("Ordem de serviço de %s concluída pelo piloto.",
		sol.DataAgendamento.Format("02/01/2006"))
	s.registrar(ctx, Notificacao{
		PerfilDestino: perfilPool(usuario.PerfilAdmin),
		SolicitacaoID: &id,
		Titulo:        "Ordem de serviço concluída",
		Mensagem:      msg,
		Link:          "/solicitacoes/" + id.String(),
	})
	s.registrar(ctx, Notificacao{
		UsuarioID:     &dono,
		SolicitacaoID: &id,
		Titulo:        "Ordem de serviço concluída",
		Mensagem:      msg,
		Link:          "/solicitacoes/" + id.String(),
	})
}

// GarantirLembretesDoDia cria, para o ator, os lembretes das visitas de
// hoje no seu escopo, em qualquer status. Roda sincronamente na
// listagem de notificações. O link é determinístico por visita e dia;
// como a verificação inclui linhas apagadas, repetir a rotina não
// duplica nem ressuscita lembretes removidos. Perfis de gestão não
// recebem lembrete.
func (s *Service) GarantirLembretesDoDia(ctx context.Context, ator usuario.Ator) error {
	if ator.Perfil.Elevado() {
		return nil
	}
	dia := Agora().Format("2006-01-02")
	visitas, err := s.repo.VisitasDoDia(ctx, ator.ID, ator.PilotoID, dia)
	if err != nil {
		return err
	}

	criados := 0
	for _, v := range visitas {
		link := fmt.Sprintf("/agenda?sid=%s&d=%s", v.SolicitacaoID, dia)
		existe, err := s.repo.ExisteComLink(ctx, ator.ID, link)
		if err != nil {
			return err
		}
		if existe {
			continue
		}
		destino := ator.ID
		sid := v.SolicitacaoID
		s.registrar(ctx, Notificacao{
			UsuarioID:     &destino,
			SolicitacaoID: &sid,
			Titulo:        "Lembrete de visita",
			Mensagem: fmt.Sprintf("Lembrete: visita hoje às %s (%s).",
				v.HoraAgendamento, v.Bairro),
			Link: link,
		})
		criados++
	}
	if criados > 0 {
		log.Info().Int("criados", criados).Str("dia", dia).Msg("lembretes do dia garantidos")
	}
	return nil
}
