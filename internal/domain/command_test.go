package domain

import (
	"errors"
	"testing"
)

func TestDecodeCommandSimulate(t *testing.T) {
	t.Parallel()

	command, err := DecodeCommand([]byte(`{"type":"simulate","trigger":"billing_spike"}`))
	if err != nil {
		t.Fatalf("decode command: %v", err)
	}
	if command.Type != CommandSimulate {
		t.Fatalf("expected simulate command, got %q", command.Type)
	}
}

func TestDecodeCommandRejectsUnknownTrigger(t *testing.T) {
	t.Parallel()

	_, err := DecodeCommand([]byte(`{"type":"simulate","trigger":"meteorStrike"}`))
	if !errors.Is(err, ErrUnknownTrigger) {
		t.Fatalf("expected unknown trigger error, got %v", err)
	}
}

func TestDecodeCommandRejectsActionWithoutLabel(t *testing.T) {
	t.Parallel()

	_, err := DecodeCommand([]byte(`{"type":"action","label":"  "}`))
	if !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("expected invalid command error, got %v", err)
	}
}

func TestDecodeCommandAcceptsBlankText(t *testing.T) {
	t.Parallel()

	if _, err := DecodeCommand([]byte(`{"type":"text","text":"   "}`)); err != nil {
		t.Fatalf("expected blank text to decode, got %v", err)
	}
}

func TestDecodeCommandRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	if _, err := DecodeCommand([]byte(`{"type":`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestParseTriggerCoversPanelButtons(t *testing.T) {
	t.Parallel()

	expected := map[string]TransitionOp{
		TriggerBillingSpike:       OpTriggerBillingSpike,
		TriggerChurnRisk:          OpTriggerChurnRisk,
		TriggerAIPerformanceBoost: OpBoostAIHandling,
		TriggerPaymentFailures:    OpTriggerPaymentFailures,
		TriggerResetToNormal:      OpReset,
	}
	for _, name := range TriggerNames() {
		transition, err := ParseTrigger(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if transition.Op != expected[name] {
			t.Fatalf("trigger %q mapped to %q, expected %q", name, transition.Op, expected[name])
		}
	}
	if _, err := ParseTrigger("AI-Performance-Boost"); err != nil {
		t.Fatalf("expected case/separator-insensitive parse, got %v", err)
	}
}
