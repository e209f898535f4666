package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"wfmassist/internal/telemetry"
)

const (
	feedStreamName   = "WFM_TRANSCRIPT"
	feedStreamMaxAge = 24 * time.Hour
	publishTimeout   = 3 * time.Second
)

// Publisher delivers one feed event to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NATSPublisher publishes feed events into a JetStream stream.
// Messages go to `<subject>.<sender>` and snapshots to `<subject>.state`.
// Params: NATS connection, JetStream context, and subject prefix.
// Returns: feed publisher implementation.
type NATSPublisher struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	subject string
}

// NewNATSPublisher connects and ensures the transcript stream exists.
// Params: server URLs and subject prefix.
// Returns: initialized publisher or setup error.
func NewNATSPublisher(urls []string, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(strings.Join(urls, ","), nats.Name("wfmassist-feed"))
	if err != nil {
		return nil, fmt.Errorf("connect feed nats: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init for feed: %w", err)
	}
	if err := ensureStream(js, feedStreamName, subject+".>", feedStreamMaxAge); err != nil {
		nc.Close()
		return nil, err
	}
	return &NATSPublisher{nc: nc, js: js, subject: subject}, nil
}

// Subject returns the routing subject of event.
// Params: feed event.
// Returns: `<prefix>.<sender>` for messages and `<prefix>.state` for snapshots.
func (p *NATSPublisher) Subject(event Event) string {
	return EventSubject(p.subject, event)
}

// EventSubject derives routing subject from prefix and event.
func EventSubject(prefix string, event Event) string {
	if event.Type == EventMessage && event.Message != nil {
		return prefix + "." + string(event.Message.Sender)
	}
	return prefix + "." + string(EventState)
}

// Publish sends one event with a dedupe id header.
// Params: context and feed event.
// Returns: marshal/publish error.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal feed event: %w", err)
	}
	msg := nats.NewMsg(p.Subject(event))
	msg.Data = body
	if id := eventID(event); id != "" {
		msg.Header.Set("Nats-Msg-Id", id)
	}
	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish feed event: %w", err)
	}
	return nil
}

// Close closes publisher NATS connection.
// Params: none.
// Returns: nil after connection close.
func (p *NATSPublisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	p.nc.Close()
	return nil
}

// Forward pumps subscription events into publisher until the subscription
// closes or ctx is done. Failures are logged and counted, never retried.
// Once ctx is done no new publish starts, even with events still buffered.
// Params: context, subscription, publisher, logger, and optional metrics.
// Returns: none.
func Forward(ctx context.Context, sub *Subscription, publisher Publisher, logger *slog.Logger, metrics *telemetry.Metrics) {
	if logger == nil {
		logger = slog.Default()
	}
	var reported uint64
	reportDrops := func() {
		dropped := sub.Dropped()
		if dropped > reported {
			metrics.EventsDropped(dropped - reported)
			logger.Warn("feed events dropped", "count", dropped-reported)
			reported = dropped
		}
	}
	defer reportDrops()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C():
			if !ok {
				return
			}
			if ctx.Err() != nil {
				return
			}
			reportDrops()
			publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := publisher.Publish(publishCtx, event)
			cancel()
			if err != nil {
				metrics.PublishFailed()
				logger.Warn("feed publish failed", "event", string(event.Type), "message_id", eventID(event), "error", err.Error())
			}
		}
	}
}

func eventID(event Event) string {
	switch {
	case event.Type == EventMessage && event.Message != nil:
		return event.Message.ID
	case event.Type == EventState && event.Revision > 0:
		return fmt.Sprintf("state-%d", event.Revision)
	default:
		return ""
	}
}

// ensureStream ensures one JetStream stream exists.
// Params: JetStream context, stream name, subject filter, and max age.
// Returns: stream create/lookup error.
func ensureStream(js nats.JetStreamContext, streamName, subject string, maxAge time.Duration) error {
	if _, err := js.StreamInfo(streamName); err == nil {
		return nil
	} else if err != nats.ErrStreamNotFound && !strings.Contains(strings.ToLower(err.Error()), "stream not found") {
		return fmt.Errorf("stream info %q: %w", streamName, err)
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subject},
		Retention: nats.LimitsPolicy,
		Storage:   nats.FileStorage,
		MaxAge:    maxAge,
	})
	if err != nil {
		return fmt.Errorf("create stream %q: %w", streamName, err)
	}
	return nil
}
