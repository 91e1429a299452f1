// Package dataset streams interaction records to an external collector.
// Publishing is fire-and-forget: a down collector never affects a chat turn.
package dataset

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	logx "github.com/resistingdestiny/memedici/pkg/logger"
)

// InteractionRecord is one completed conversation turn, flattened for
// downstream training and analytics consumers.
type InteractionRecord struct {
	AgentID         string    `json:"agent_id"`
	ThreadID        string    `json:"thread_id"`
	UserMessage     string    `json:"user_message"`
	Response        string    `json:"response"`
	ToolsUsed       []string  `json:"tools_used,omitempty"`
	ArtworksCreated int       `json:"artworks_created"`
	Success         bool      `json:"success"`
	Timestamp       time.Time `json:"timestamp"`
}

type Sink interface {
	Publish(rec InteractionRecord)
	Close()
}

// NatsSink publishes records as JSON onto a NATS subject.
type NatsSink struct {
	conn    *nats.Conn
	subject string
}

func NewNatsSink(url, subject string) (*NatsSink, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, err
	}
	return &NatsSink{conn: conn, subject: subject}, nil
}

func (s *NatsSink) Publish(rec InteractionRecord) {
	payload, err := json.Marshal(rec)
	if err != nil {
		logx.Error().Err(err).Msg("failed to marshal interaction record")
		return
	}
	if err := s.conn.Publish(s.subject, payload); err != nil {
		logx.Warn().Err(err).Str("subject", s.subject).Msg("failed to publish interaction record")
	}
}

func (s *NatsSink) Close() {
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
	}
}

// NopSink drops every record; used when no collector is configured.
type NopSink struct{}

func (NopSink) Publish(InteractionRecord) {}
func (NopSink) Close()                    {}
