package templatefmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Default assistant reply bodies.
const (
	DefaultReplyTemplate    = `I understand you want to "{{.Text}}". I'm processing this request and will coordinate with the appropriate systems. This action will be logged in the audit trail.`
	DefaultFallbackTemplate = `✅ **Confirmed:** {{.Action}} has been executed successfully. All relevant teams have been notified and actions are being tracked in our subscription management system.`
)

// ReplyData is the template context of free-text acknowledgements.
// Params: literal submitted text.
// Returns: data passed to reply templates.
type ReplyData struct {
	Text string
}

// ConfirmationData is the template context of generic action confirmations.
// Params: clicked action label.
// Returns: data passed to fallback templates.
type ConfirmationData struct {
	Action string
}

// FuncMap returns shared conversation template helpers.
// Params: none.
// Returns: deterministic helper map used by config validation and runtime rendering.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"fmtDuration": FormatDuration,
		"json":        MarshalJSON,
		"trim":        strings.TrimSpace,
	}
}

// ParseConversationTemplate parses one reply template with shared helpers.
// Params: template name and body.
// Returns: compiled template or parse error.
func ParseConversationTemplate(name, body string) (*template.Template, error) {
	return template.New(name).Funcs(FuncMap()).Option("missingkey=error").Parse(body)
}

// Compile parses body and dry-runs it against sample data.
// Unknown fields only surface at execution time, so a dry run is required
// to reject them at config load.
// Params: template name, body, and sample context.
// Returns: compiled template or parse/execute error.
func Compile(name, body string, sample any) (*template.Template, error) {
	tmpl, err := ParseConversationTemplate(name, body)
	if err != nil {
		return nil, err
	}
	if _, err := Render(tmpl, sample); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Render executes template into a string.
// Params: compiled template and context.
// Returns: rendered text or execute error.
func Render(tmpl *template.Template, data any) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("template is nil")
	}
	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return out.String(), nil
}

// FormatDuration renders duration in compact human form with one decimal precision.
// Params: template value expected as time.Duration or *time.Duration.
// Returns: formatted duration string.
func FormatDuration(value any) string {
	var duration time.Duration
	switch typed := value.(type) {
	case time.Duration:
		duration = typed
	case *time.Duration:
		if typed == nil {
			return "0.0s"
		}
		duration = *typed
	default:
		return "0.0s"
	}

	if duration < 0 {
		duration = -duration
	}
	seconds := duration.Seconds()
	switch {
	case seconds >= 3600:
		return fmt.Sprintf("%.1fh", seconds/3600)
	case seconds >= 60:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fs", seconds)
	}
}

// MarshalJSON renders value into JSON string for template embedding.
// Params: template value of any type.
// Returns: marshaled JSON string or "null" on marshal failure.
func MarshalJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "null"
	}
	return string(encoded)
}
