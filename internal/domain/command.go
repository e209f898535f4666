package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCommand marks command payloads that violate the input contract.
var ErrInvalidCommand = errors.New("invalid command")

// CommandType identifies one presentation-layer input event.
type CommandType string

const (
	// CommandSimulate invokes one simulation trigger.
	CommandSimulate CommandType = "simulate"
	// CommandText submits free text.
	CommandText CommandType = "text"
	// CommandAction clicks one action button.
	CommandAction CommandType = "action"
	// CommandTogglePanel toggles the simulation panel.
	CommandTogglePanel CommandType = "toggle_panel"
)

// Command is one input event arriving from the presentation layer.
// Params: type selector and the fields that type uses.
// Returns: validated input for the dashboard.
type Command struct {
	Type      CommandType `json:"type"`
	Trigger   string      `json:"trigger,omitempty"`
	Text      string      `json:"text,omitempty"`
	Label     string      `json:"label,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// DecodeCommand decodes and validates one command payload.
// Params: JSON document bytes.
// Returns: validated command or decode/validation error.
func DecodeCommand(raw []byte) (Command, error) {
	var command Command
	if err := json.Unmarshal(raw, &command); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	if err := command.Validate(); err != nil {
		return Command{}, err
	}
	return command, nil
}

// Validate checks the command against the input contract.
// Blank free text is valid here; the conversation engine ignores it.
// Params: command fields.
// Returns: error wrapping ErrInvalidCommand or ErrUnknownTrigger.
func (c Command) Validate() error {
	switch c.Type {
	case CommandSimulate:
		if _, err := ParseTrigger(c.Trigger); err != nil {
			return err
		}
	case CommandText:
	case CommandAction:
		if strings.TrimSpace(c.Label) == "" {
			return fmt.Errorf("%w: label is required for type=action", ErrInvalidCommand)
		}
	case CommandTogglePanel:
	default:
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidCommand, c.Type)
	}
	return nil
}
