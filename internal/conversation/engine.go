// Package conversation keeps the assistant transcript and produces scripted
// replies for alerts, free text, and action clicks.
package conversation

import (
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"wfmassist/internal/clock"
	"wfmassist/internal/domain"
	"wfmassist/internal/templatefmt"
)

// Deferrer schedules fn after delay on the owner's serialised context.
// Params: delay and callback.
// Returns: cancellable timer handle.
type Deferrer func(delay time.Duration, fn func()) clock.Timer

// Options tunes reply timing, rendering, and append observation.
// Params: delays, optional templates, id/time sources, logger, append hook.
// Returns: engine construction settings.
type Options struct {
	TypingDelay      time.Duration
	ActionDelay      time.Duration
	ReplyTemplate    *template.Template
	FallbackTemplate *template.Template
	Now              func() time.Time
	NewID            func() string
	Logger           *slog.Logger
	OnAppend         func(domain.Message)
}

// DefaultTypingDelay and DefaultActionDelay are the demo reply delays.
const (
	DefaultTypingDelay = 2000 * time.Millisecond
	DefaultActionDelay = 1500 * time.Millisecond
)

var (
	defaultReply    = template.Must(templatefmt.ParseConversationTemplate("reply", templatefmt.DefaultReplyTemplate))
	defaultFallback = template.Must(templatefmt.ParseConversationTemplate("fallback", templatefmt.DefaultFallbackTemplate))
)

// Engine owns the append-only transcript and the alert waiting state.
// It is not safe for concurrent use; the owner serialises every call and
// every deferred callback.
type Engine struct {
	deferFn  Deferrer
	opts     Options
	logger   *slog.Logger
	messages []domain.Message
	index    map[string]int
	alert    domain.AlertState
	welcomed bool
	typing   int
	nextTask int
	pending  map[int]clock.Timer
	stopped  bool
}

// New creates conversation engine with empty transcript.
// Params: deferrer bound to owner context and options.
// Returns: engine ready for Welcome.
func New(deferFn Deferrer, opts Options) *Engine {
	if opts.TypingDelay <= 0 {
		opts.TypingDelay = DefaultTypingDelay
	}
	if opts.ActionDelay <= 0 {
		opts.ActionDelay = DefaultActionDelay
	}
	if opts.ReplyTemplate == nil {
		opts.ReplyTemplate = defaultReply
	}
	if opts.FallbackTemplate == nil {
		opts.FallbackTemplate = defaultFallback
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		deferFn: deferFn,
		opts:    opts,
		logger:  logger,
		index:   make(map[string]int),
		pending: make(map[int]clock.Timer),
	}
}

// Welcome appends the startup greeting once.
// Params: none.
// Returns: true when greeting was appended by this call.
func (e *Engine) Welcome() bool {
	if e.welcomed || e.stopped {
		return false
	}
	e.welcomed = true
	e.append(domain.Message{Sender: domain.SenderAI, Text: WelcomeText, Kind: domain.KindWelcome})
	return true
}

// AppendAlert appends the fixed script of kind and starts awaiting a reaction.
// Params: fired alert kind.
// Returns: appended message; false for unknown kinds.
func (e *Engine) AppendAlert(kind domain.AlertKind) (domain.Message, bool) {
	script, ok := ScriptFor(kind)
	if !ok || e.stopped {
		return domain.Message{}, false
	}
	message := e.append(domain.Message{
		Sender:   domain.SenderAI,
		Text:     script.Body,
		Kind:     domain.AlertMessageKind(kind),
		Priority: kind.Priority(),
		Actions:  script.Actions,
	})
	e.alert = domain.AlertState{Waiting: true, LastAlert: kind}
	return message, true
}

// SubmitText appends user free text and schedules the typed acknowledgement.
// Blank input is ignored and schedules nothing.
// Params: raw user text.
// Returns: true when text was accepted.
func (e *Engine) SubmitText(text string) bool {
	if strings.TrimSpace(text) == "" || e.stopped {
		return false
	}
	e.append(domain.Message{Sender: domain.SenderUser, Text: text, Kind: domain.KindInput})
	e.typing++
	e.schedule(e.opts.TypingDelay, func() {
		e.typing--
		e.append(domain.Message{Sender: domain.SenderAI, Text: e.renderReply(text), Kind: domain.KindResponse})
	})
	return true
}

// ClickAction echoes a clicked label and schedules its confirmation.
// The label is used verbatim for both the echo and the confirmation lookup.
// Params: action label and id of the message that offered it.
// Returns: echoed user message.
func (e *Engine) ClickAction(label, originatingID string) domain.Message {
	if originatingID != "" {
		if _, ok := e.index[originatingID]; !ok {
			e.logger.Warn("action clicked for unknown message", "message_id", originatingID, "label", label)
		}
	}
	echo := e.append(domain.Message{
		Sender:  domain.SenderUser,
		Text:    "✅ " + label,
		Kind:    domain.KindInput,
		ReplyTo: originatingID,
	})
	if e.stopped {
		return echo
	}
	action := ParseAction(label)
	e.schedule(e.opts.ActionDelay, func() {
		e.append(domain.Message{
			Sender:  domain.SenderAI,
			Text:    e.renderConfirmation(action, label),
			Kind:    domain.KindConfirmation,
			ReplyTo: originatingID,
		})
		e.alert.Waiting = false
	})
	return echo
}

// Typing reports whether a free-text reply is outstanding.
func (e *Engine) Typing() bool {
	return e.typing > 0
}

// Alert returns current waiting state.
func (e *Engine) Alert() domain.AlertState {
	return e.alert
}

// Len returns transcript length.
func (e *Engine) Len() int {
	return len(e.messages)
}

// Transcript returns a detached copy of all messages in append order.
// Params: none.
// Returns: message copies.
func (e *Engine) Transcript() []domain.Message {
	out := make([]domain.Message, len(e.messages))
	for i, message := range e.messages {
		out[i] = message.Clone()
	}
	return out
}

// Message looks up one message by id.
// Params: message id.
// Returns: message copy and lookup result.
func (e *Engine) Message(id string) (domain.Message, bool) {
	position, ok := e.index[id]
	if !ok {
		return domain.Message{}, false
	}
	return e.messages[position].Clone(), true
}

// PendingReplies returns number of scheduled replies.
func (e *Engine) PendingReplies() int {
	return len(e.pending)
}

// Stop cancels every scheduled reply; later inputs still echo but schedule nothing.
// Params: none.
// Returns: none.
func (e *Engine) Stop() {
	for id, timer := range e.pending {
		timer.Stop()
		delete(e.pending, id)
	}
	e.typing = 0
	e.stopped = true
}

func (e *Engine) schedule(delay time.Duration, fn func()) {
	e.nextTask++
	id := e.nextTask
	e.pending[id] = e.deferFn(delay, func() {
		if _, ok := e.pending[id]; !ok {
			return
		}
		delete(e.pending, id)
		fn()
	})
}

func (e *Engine) append(message domain.Message) domain.Message {
	message.ID = e.opts.NewID()
	message.Seq = len(e.messages) + 1
	message.Timestamp = e.opts.Now()
	message = message.Clone()
	e.index[message.ID] = len(e.messages)
	e.messages = append(e.messages, message)
	if message.Sender == domain.SenderUser {
		e.alert.Waiting = false
	}
	e.logger.Debug("message appended", "message_id", message.ID, "seq", message.Seq, "sender", string(message.Sender), "kind", string(message.Kind))
	if e.opts.OnAppend != nil {
		e.opts.OnAppend(message.Clone())
	}
	return message.Clone()
}

func (e *Engine) renderReply(text string) string {
	rendered, err := templatefmt.Render(e.opts.ReplyTemplate, templatefmt.ReplyData{Text: text})
	if err == nil {
		return rendered
	}
	e.logger.Error("reply template failed", "error", err.Error())
	rendered, _ = templatefmt.Render(defaultReply, templatefmt.ReplyData{Text: text})
	return rendered
}

func (e *Engine) renderConfirmation(action Action, label string) string {
	if body, ok := confirmationBody(action); ok {
		return body
	}
	rendered, err := templatefmt.Render(e.opts.FallbackTemplate, templatefmt.ConfirmationData{Action: label})
	if err == nil {
		return rendered
	}
	e.logger.Error("fallback template failed", "action", label, "error", err.Error())
	rendered, _ = templatefmt.Render(defaultFallback, templatefmt.ConfirmationData{Action: label})
	return rendered
}
