package storage

import (
	"chat-relay/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Message field numbers on disk. Never renumber.
const (
	fieldID     protowire.Number = 1
	fieldFrom   protowire.Number = 2
	fieldTo     protowire.Number = 3
	fieldText   protowire.Number = 4
	fieldKind   protowire.Number = 5
	fieldSentAt protowire.Number = 6
)

func encodeLastSeen(at time.Time) ([]byte, error) {
	return proto.Marshal(timestamppb.New(at))
}

func decodeLastSeen(value []byte) (time.Time, error) {
	var ts timestamppb.Timestamp
	if err := proto.Unmarshal(value, &ts); err != nil {
		return time.Time{}, err
	}
	if err := ts.CheckValid(); err != nil {
		return time.Time{}, err
	}
	return ts.AsTime(), nil
}

func encodeMessage(m domain.Message) []byte {
	var b []byte
	b = appendString(b, fieldID, m.ID.String())
	b = appendString(b, fieldFrom, m.From)
	b = appendString(b, fieldTo, m.To)
	b = appendString(b, fieldText, m.Text)
	b = appendString(b, fieldKind, string(m.Kind))
	b = appendString(b, fieldSentAt, m.SentAt)
	return b
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// decodeMessage skips unknown fields so older binaries can read newer records.
func decodeMessage(b []byte) (domain.Message, error) {
	var m domain.Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.Message{}, protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		value, n := protowire.ConsumeString(b)
		if n < 0 {
			return domain.Message{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case fieldID:
			id, err := uuid.Parse(value)
			if err != nil {
				return domain.Message{}, fmt.Errorf("message id: %w", err)
			}
			m.ID = id
		case fieldFrom:
			m.From = value
		case fieldTo:
			m.To = value
		case fieldText:
			m.Text = value
		case fieldKind:
			m.Kind = domain.Kind(value)
		case fieldSentAt:
			m.SentAt = value
		}
	}
	if !m.Kind.IsValid() {
		return domain.Message{}, fmt.Errorf("unknown message kind %q", m.Kind)
	}
	return m, nil
}
