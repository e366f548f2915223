package services

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type JoinCommand struct {
	Name string `validate:"required"`
}

type SendMessageCommand struct {
	From string      `validate:"required"`
	To   string      `validate:"required"`
	Text string      `validate:"required"`
	Kind domain.Kind `validate:"required,oneof=broadcast private"`
}

type ListMessagesCommand struct {
	Viewer string `validate:"required"`
	// Limit is the raw client value, empty when absent.
	Limit string
}

type IChatService interface {
	Join(ctx context.Context, cmd JoinCommand) error
	ListOnline(ctx context.Context) ([]domain.Participant, error)
	SendMessage(ctx context.Context, cmd SendMessageCommand) error
	ListMessages(ctx context.Context, cmd ListMessagesCommand) ([]domain.Message, error)
	Heartbeat(ctx context.Context, name string) error
}

// ChatService maps the relay operations onto the registry and the message log.
// Operations touching both (join, send) call them one after the other: a
// participant can be online before its join notice reaches the log.
type ChatService struct {
	log      *slog.Logger
	registry contract.IParticipantRegistry
	messages contract.IMessageLog
	clock    contract.Clock
	metrics  *observability.Metrics
}

func NewChatService(log *slog.Logger, registry contract.IParticipantRegistry, messages contract.IMessageLog,
	clock contract.Clock, metrics *observability.Metrics) *ChatService {
	return &ChatService{log: log, registry: registry, messages: messages, clock: clock, metrics: metrics}
}

func (s *ChatService) Join(ctx context.Context, cmd JoinCommand) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	if err := s.registry.Join(ctx, cmd.Name); err != nil {
		return err
	}
	s.metrics.Joins.Inc()

	if err := s.append(ctx, domain.NewEnteredMessage(cmd.Name, s.clock.Now())); err != nil {
		s.log.Error("Participant joined but the join notice was lost", "name", cmd.Name, "err", err)
		return fmt.Errorf("join notice: %w", err)
	}
	s.log.Debug("Participant joined", "name", cmd.Name)
	return nil
}

func (s *ChatService) ListOnline(ctx context.Context) ([]domain.Participant, error) {
	return s.registry.ListOnline(ctx)
}

func (s *ChatService) SendMessage(ctx context.Context, cmd SendMessageCommand) error {
	cmd.From = strings.TrimSpace(cmd.From)
	cmd.To = strings.TrimSpace(cmd.To)
	cmd.Text = strings.TrimSpace(cmd.Text)
	if err := validate.Struct(cmd); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}

	online, err := s.registry.IsOnline(ctx, cmd.From)
	if err != nil {
		return err
	}
	if !online {
		return errors.ErrSenderNotRegistered
	}
	return s.append(ctx, domain.NewMessage(cmd.From, cmd.To, cmd.Text, cmd.Kind, s.clock.Now()))
}

// ListMessages returns what the viewer may read, oldest first.
// An absent limit returns everything, an invalid one fails with ErrInvalidLimit.
func (s *ChatService) ListMessages(ctx context.Context, cmd ListMessagesCommand) ([]domain.Message, error) {
	cmd.Viewer = strings.TrimSpace(cmd.Viewer)
	if err := validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	limit, err := domain.ParseLimit(cmd.Limit)
	if err != nil {
		return nil, err
	}
	all, err := s.messages.All(ctx)
	if err != nil {
		return nil, err
	}
	return domain.VisibleTo(cmd.Viewer, all, limit)
}

func (s *ChatService) Heartbeat(ctx context.Context, name string) error {
	return s.registry.Heartbeat(ctx, strings.TrimSpace(name))
}

func (s *ChatService) append(ctx context.Context, message domain.Message) error {
	if err := s.messages.Append(ctx, message); err != nil {
		return err
	}
	s.metrics.MessageAppended(message.Kind)
	return nil
}
