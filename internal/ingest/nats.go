package ingest

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"

	"wfmassist/internal/domain"
	"wfmassist/internal/telemetry"
)

// NATSSubscriber consumes presentation-layer commands from a NATS subject.
// Params: NATS connection, subscription, and command handler.
// Returns: NATS command lifecycle handle.
type NATSSubscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	handler CommandHandler
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewNATSSubscriber connects and subscribes to the command subject.
// Params: server URLs, subject, command handler, optional logger and metrics.
// Returns: started subscriber or initialization error.
func NewNATSSubscriber(urls []string, subject string, handler CommandHandler, logger *slog.Logger, metrics *telemetry.Metrics) (*NATSSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(strings.Join(urls, ","), nats.Name("wfmassist-commands"))
	if err != nil {
		return nil, fmt.Errorf("connect nats commands: %w", err)
	}
	subscriber := &NATSSubscriber{nc: nc, handler: handler, logger: logger, metrics: metrics}
	sub, err := nc.Subscribe(subject, subscriber.handleMessage)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("subscribe %q: %w", subject, err)
	}
	if err := nc.Flush(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("flush subscription %q: %w", subject, err)
	}
	subscriber.sub = sub
	return subscriber, nil
}

// handleMessage decodes and dispatches one command message.
// Params: NATS message.
// Returns: none; invalid payloads are logged and dropped.
func (s *NATSSubscriber) handleMessage(message *nats.Msg) {
	command, err := domain.DecodeCommand(message.Data)
	if err != nil {
		s.metrics.CommandHandled("nats", "rejected")
		s.logger.Warn("nats command decode failed", "subject", message.Subject, "error", err.Error())
		return
	}
	accepted, err := s.handler.Handle(command)
	if err != nil {
		s.metrics.CommandHandled("nats", "rejected")
		s.logger.Warn("nats command rejected", "subject", message.Subject, "type", string(command.Type), "error", err.Error())
		return
	}
	s.metrics.CommandHandled("nats", acceptedResult(accepted))
	s.logger.Debug("nats command handled", "type", string(command.Type), "accepted", accepted)
}

// Close stops NATS subscription and closes connection.
// Params: none.
// Returns: close error from subscription drain.
func (s *NATSSubscriber) Close() error {
	if s.sub != nil {
		if err := s.sub.Drain(); err != nil {
			s.nc.Close()
			return err
		}
	}
	s.nc.Close()
	return nil
}
