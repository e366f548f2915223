// Command badger_inspect dumps the participants and messages of a relay badger
// directory without taking its write lock.
package main

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/storage"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/jonboulle/clockwork"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	BadgerFilepath string        `envconfig:"BADGER_FILEPATH" default:"./data/badger"`
	Timeout        time.Duration `envconfig:"INSPECT_TIMEOUT" default:"10s"`
	// INSPECT_COLOURS colors message kinds
	Colours bool `envconfig:"INSPECT_COLOURS" default:"true"`
	// INSPECT_LIMIT keeps only the last N messages, 0 keeps all of them
	Limit int `envconfig:"INSPECT_LIMIT" default:"0"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	ctx := context.Background()
	logger := logs.GetLoggerFromLevel(slog.LevelWarn)
	participants, err := storage.NewParticipantRepository(db, logger, clockwork.NewRealClock(), cfg.Timeout).ListOnline(ctx)
	if err != nil {
		log.Fatal(err)
	}
	messages, err := storage.ReadMessages(ctx, db, cfg.Timeout)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Limit > 0 && cfg.Limit < len(messages) {
		messages = messages[len(messages)-cfg.Limit:]
	}

	color.Enable = cfg.Colours
	render(os.Stdout, participants, messages)
}

func render(w io.Writer, participants []domain.Participant, messages []domain.Message) {
	fmt.Fprintf(w, "Participants (%d)\n", len(participants))
	table := newTable(w, "Name", "Last seen")
	for _, p := range participants {
		table.Append([]string{p.Name, p.LastSeenAt.Format(time.RFC3339)})
	}
	table.Render()

	fmt.Fprintf(w, "\nMessages (%d)\n", len(messages))
	table = newTable(w, "Time", "Kind", "From", "To", "Text")
	for _, m := range messages {
		table.Append([]string{m.SentAt, colorKind(m.Kind), m.From, m.To, m.Text})
	}
	table.Render()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func colorKind(kind domain.Kind) string {
	switch kind {
	case domain.KindStatus:
		return color.New(color.FgYellow).Render(string(kind))
	case domain.KindPrivate:
		return color.New(color.FgMagenta).Render(string(kind))
	default:
		return color.New(color.FgGreen).Render(string(kind))
	}
}
