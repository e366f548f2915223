package services

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"chat-relay/observability"
	"chat-relay/runtime"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/mama165/sdk-go/logs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newInMemoryService() (*ChatService, *runtime.Registry, *runtime.MessageLog) {
	clock := clockwork.NewFakeClock()
	registry := runtime.NewRegistry(clock)
	messageLog := runtime.NewMessageLog()
	service := NewChatService(logs.GetLoggerFromLevel(slog.LevelDebug), registry, messageLog, clock,
		observability.NewMetrics(prometheus.NewRegistry()))
	return service, registry, messageLog
}

func TestChatService_Join_Appends_Status_Message(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messageLog := newInMemoryService()

	// When ana joins
	req.NoError(service.Join(ctx, JoinCommand{Name: "ana"}))

	// Then ana is online
	online, err := service.ListOnline(ctx)
	req.NoError(err)
	req.Len(online, 1)
	req.Equal("ana", online[0].Name)

	// And the log holds one broadcast status message from ana
	all, err := messageLog.All(ctx)
	req.NoError(err)
	req.Len(all, 1)
	req.Equal("ana", all[0].From)
	req.Equal(domain.Broadcast, all[0].To)
	req.Equal(domain.KindStatus, all[0].Kind)
	req.Equal(domain.EnteredText, all[0].Text)
	req.Equal(1.0, testutil.ToFloat64(service.metrics.Joins))
}

func TestChatService_Join_Conflict_Appends_Nothing(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messageLog := newInMemoryService()

	req.NoError(service.Join(ctx, JoinCommand{Name: "ana"}))
	req.ErrorIs(service.Join(ctx, JoinCommand{Name: "ana"}), errors.ErrNameConflict)

	all, err := messageLog.All(ctx)
	req.NoError(err)
	req.Len(all, 1)
}

func TestChatService_Join_Validation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newInMemoryService()

	for _, name := range []string{"", "   "} {
		require.ErrorIs(t, service.Join(ctx, JoinCommand{Name: name}), errors.ErrInvalidRequest)
	}

	// Names have no length cap
	require.NoError(t, service.Join(ctx, JoinCommand{Name: strings.Repeat("a", 200)}))
}

func TestChatService_Join_Registered_Before_Notice(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	clock := clockwork.NewFakeClock()
	registry := runtime.NewRegistry(clock)
	messageLog := mocks.NewMockIMessageLog(ctrl)
	service := NewChatService(logs.GetLoggerFromLevel(slog.LevelDebug), registry, messageLog, clock,
		observability.NewMetrics(prometheus.NewRegistry()))

	// Given the log fails while the join notice is written
	messageLog.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, m domain.Message) error {
			// Then ana is already online before the notice exists
			online, err := registry.IsOnline(ctx, "ana")
			req.NoError(err)
			req.True(online)
			return errors.ErrStoreUnavailable
		})

	err := service.Join(ctx, JoinCommand{Name: "ana"})

	// And the failure is reported while ana stays registered
	req.ErrorIs(err, errors.ErrStoreUnavailable)
	online, err := registry.IsOnline(ctx, "ana")
	req.NoError(err)
	req.True(online)
}

func TestChatService_SendMessage_Private_Visibility(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, _ := newInMemoryService()

	// Given ana and bob are online
	req.NoError(service.Join(ctx, JoinCommand{Name: "ana"}))
	req.NoError(service.Join(ctx, JoinCommand{Name: "bob"}))

	// When bob sends a private message to ana
	req.NoError(service.SendMessage(ctx, SendMessageCommand{From: "bob", To: "ana", Text: "hi", Kind: domain.KindPrivate}))

	// Then ana and bob see it, cid doesn't
	for viewer, visible := range map[string]bool{"ana": true, "bob": true, "cid": false} {
		messages, err := service.ListMessages(ctx, ListMessagesCommand{Viewer: viewer})
		req.NoError(err)
		hasHi := lo.ContainsBy(messages, func(m domain.Message) bool { return m.Text == "hi" })
		req.Equal(visible, hasHi, viewer)
	}
}

func TestChatService_SendMessage_Sender_Not_Registered(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, messageLog := newInMemoryService()

	err := service.SendMessage(ctx, SendMessageCommand{From: "bob", To: domain.Broadcast, Text: "hi", Kind: domain.KindBroadcast})

	req.ErrorIs(err, errors.ErrSenderNotRegistered)
	all, err := messageLog.All(ctx)
	req.NoError(err)
	req.Empty(all)
}

func TestChatService_SendMessage_Validation(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newInMemoryService()
	require.NoError(t, service.Join(ctx, JoinCommand{Name: "bob"}))

	base := SendMessageCommand{From: "bob", To: "ana", Text: "hi", Kind: domain.KindPrivate}
	tests := []struct {
		description string
		modify      func(c *SendMessageCommand)
	}{
		{"Should fail if To is empty", func(c *SendMessageCommand) { c.To = "" }},
		{"Should fail if Text is blank", func(c *SendMessageCommand) { c.Text = "  " }},
		{"Should fail if From is empty", func(c *SendMessageCommand) { c.From = "" }},
		{"Should fail if Kind is status", func(c *SendMessageCommand) { c.Kind = domain.KindStatus }},
		{"Should fail if Kind is unknown", func(c *SendMessageCommand) { c.Kind = "shout" }},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			cmd := base
			tt.modify(&cmd)
			require.ErrorIs(t, service.SendMessage(ctx, cmd), errors.ErrInvalidRequest)
		})
	}
}

func TestChatService_ListMessages_Limit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, _ := newInMemoryService()
	for _, name := range []string{"ana", "bob", "cid"} {
		req.NoError(service.Join(ctx, JoinCommand{Name: name}))
	}

	// With limit omitted, everything visible is returned
	messages, err := service.ListMessages(ctx, ListMessagesCommand{Viewer: "ana"})
	req.NoError(err)
	req.Len(messages, 3)

	// With a limit, the most recent ones
	messages, err = service.ListMessages(ctx, ListMessagesCommand{Viewer: "ana", Limit: "2"})
	req.NoError(err)
	req.Equal([]string{"bob", "cid"}, lo.Map(messages, func(m domain.Message, _ int) string { return m.From }))

	// With an invalid limit, the request is rejected
	for _, limit := range []string{"-1", "0", "abc"} {
		_, err = service.ListMessages(ctx, ListMessagesCommand{Viewer: "ana", Limit: limit})
		req.ErrorIs(err, errors.ErrInvalidLimit, limit)
	}
}

func TestChatService_ListMessages_Store_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	registry := mocks.NewMockIParticipantRegistry(ctrl)
	messageLog := mocks.NewMockIMessageLog(ctrl)
	service := NewChatService(logs.GetLoggerFromLevel(slog.LevelDebug), registry, messageLog,
		clockwork.NewFakeClock(), observability.NewMetrics(prometheus.NewRegistry()))

	messageLog.EXPECT().All(gomock.Any()).Return(nil, errors.ErrTimeout)

	_, err := service.ListMessages(context.Background(), ListMessagesCommand{Viewer: "ana"})
	req.ErrorIs(err, errors.ErrTimeout)
}

func TestChatService_Heartbeat(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, _ := newInMemoryService()

	req.ErrorIs(service.Heartbeat(ctx, "ana"), errors.ErrNotFound)
	req.NoError(service.Join(ctx, JoinCommand{Name: "ana"}))
	req.NoError(service.Heartbeat(ctx, "ana"))
}

func TestChatService_Names_Are_Trimmed_Everywhere(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	service, _, _ := newInMemoryService()

	// Given ana and bob joined with surrounding spaces
	req.NoError(service.Join(ctx, JoinCommand{Name: " ana "}))
	req.NoError(service.Join(ctx, JoinCommand{Name: "bob\t"}))

	// When bob whispers to ana and ana heartbeats with a padded name
	req.NoError(service.SendMessage(ctx, SendMessageCommand{From: " bob", To: "ana ", Text: "hi", Kind: domain.KindPrivate}))
	req.NoError(service.Heartbeat(ctx, "  ana"))

	// Then a padded viewer still reads the private message
	messages, err := service.ListMessages(ctx, ListMessagesCommand{Viewer: " ana "})
	req.NoError(err)
	req.True(lo.ContainsBy(messages, func(m domain.Message) bool { return m.Text == "hi" }))

	// And a blank viewer or heartbeat name is rejected like a missing one
	_, err = service.ListMessages(ctx, ListMessagesCommand{Viewer: "  "})
	req.ErrorIs(err, errors.ErrInvalidRequest)
	req.ErrorIs(service.Heartbeat(ctx, "  "), errors.ErrNotFound)
}
