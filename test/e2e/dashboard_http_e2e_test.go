package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"wfmassist/internal/domain"
	"wfmassist/internal/feed"
)

func TestHTTPStreamCarriesAlertAndConfirmation(t *testing.T) {
	port := freePort(t)
	service := newServiceFromConfig(t, writeConfig(t, baseConfig(port)))
	runService(t, service)
	baseURL := waitReady(t, port)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, strings.Replace(baseURL, "http", "ws", 1)+"/api/stream", nil)
	if err != nil {
		t.Fatalf("dial stream: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	welcome := nextMessage(ctx, t, conn, func(m domain.Message) bool { return m.Kind == domain.KindWelcome })
	if welcome.Seq != 1 {
		t.Fatalf("expected welcome as first message, got seq %d", welcome.Seq)
	}

	postJSON(t, baseURL+"/api/simulate/billingSpike", "")
	alert := nextMessage(ctx, t, conn, func(m domain.Message) bool {
		return m.Kind == domain.AlertMessageKind(domain.AlertBillingSpike)
	})
	if len(alert.Actions) != 4 {
		t.Fatalf("expected 4 alert actions, got %v", alert.Actions)
	}

	postJSON(t, baseURL+"/api/actions", fmt.Sprintf(`{"label":%q,"message_id":%q}`, "Escalate to Payment Ops", alert.ID))
	echo := nextMessage(ctx, t, conn, func(m domain.Message) bool { return m.Sender == domain.SenderUser })
	if echo.Text != "✅ Escalate to Payment Ops" || echo.ReplyTo != alert.ID {
		t.Fatalf("unexpected echo %+v", echo)
	}
	confirmation := nextMessage(ctx, t, conn, func(m domain.Message) bool { return m.Kind == domain.KindConfirmation })
	if !strings.Contains(confirmation.Text, "Payment Operations Escalated") {
		t.Fatalf("expected dedicated escalation body, got %q", confirmation.Text)
	}

	response, err := http.Get(baseURL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer response.Body.Close()
	body, _ := io.ReadAll(response.Body)
	if !strings.Contains(string(body), `wfmassist_monitor_alerts_fired_total{alert="billingSpike"} 1`) {
		t.Fatalf("expected fired alert counter, got:\n%s", body)
	}
}

func postJSON(t *testing.T, url, body string) {
	t.Helper()
	response, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		payload, _ := io.ReadAll(response.Body)
		t.Fatalf("post %s: status %d %s", url, response.StatusCode, payload)
	}
}

// nextMessage reads stream frames until a message event matches.
func nextMessage(ctx context.Context, t *testing.T, conn *websocket.Conn, match func(domain.Message) bool) domain.Message {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		var event feed.Event
		if err := json.Unmarshal(data, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		if event.Type == feed.EventMessage && event.Message != nil && match(*event.Message) {
			return *event.Message
		}
	}
}
