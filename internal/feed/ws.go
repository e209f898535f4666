package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"wfmassist/internal/domain"
	"wfmassist/internal/telemetry"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 5 * time.Second
)

// Source yields the current transcript and a subscription atomically, so a
// stream client sees every message exactly once.
type Source interface {
	SubscribeWithHistory(buffer int) ([]domain.Message, domain.MetricsState, uint64, *Subscription)
}

// StreamHandler serves the transcript stream over WebSocket.
// Params: event source, logger, and optional metrics.
// Returns: HTTP handler upgrading every request.
type StreamHandler struct {
	source  Source
	logger  *slog.Logger
	metrics *telemetry.Metrics
	origins []string
}

// NewStreamHandler creates WebSocket stream handler.
// Params: event source, logger, metrics, and allowed origin patterns.
// Returns: stream handler.
func NewStreamHandler(source Source, logger *slog.Logger, metrics *telemetry.Metrics, origins []string) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{source: source, logger: logger, metrics: metrics, origins: origins}
}

// ServeHTTP upgrades connection and streams history then live events.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.origins})
	if err != nil {
		h.logger.Warn("websocket accept failed", "error", err.Error())
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")

	h.metrics.SubscriberDelta(1)
	defer h.metrics.SubscriberDelta(-1)

	ctx := conn.CloseRead(r.Context())
	history, state, revision, sub := h.source.SubscribeWithHistory(streamBuffer)
	defer sub.Close()

	if err := writeEvent(ctx, conn, StateEvent(state, revision)); err != nil {
		h.logStreamEnd(err)
		return
	}
	for _, message := range history {
		if err := writeEvent(ctx, conn, MessageEvent(message)); err != nil {
			h.logStreamEnd(err)
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusGoingAway, "dashboard closed")
				return
			}
			if err := writeEvent(ctx, conn, event); err != nil {
				h.logStreamEnd(err)
				return
			}
		}
	}
}

func (h *StreamHandler) logStreamEnd(err error) {
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return
	}
	h.logger.Debug("transcript stream ended", "error", err.Error())
}

func writeEvent(ctx context.Context, conn *websocket.Conn, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
