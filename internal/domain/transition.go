package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTrigger marks a simulation trigger name outside the fixed set.
var ErrUnknownTrigger = errors.New("unknown simulation trigger")

// TransitionOp identifies one named metrics store operation.
// Params: operation constants.
// Returns: typed operation name.
type TransitionOp string

const (
	// OpTriggerBillingSpike drops billing service level and raises billing volume.
	OpTriggerBillingSpike TransitionOp = "triggerBillingSpike"
	// OpTriggerChurnRisk raises cancellations.
	OpTriggerChurnRisk TransitionOp = "triggerChurnRisk"
	// OpBoostAIHandling raises AI handling share.
	OpBoostAIHandling TransitionOp = "boostAiHandling"
	// OpTriggerPaymentFailures arms the payment failures flag.
	OpTriggerPaymentFailures TransitionOp = "triggerPaymentFailures"
	// OpReset restores the baseline snapshot.
	OpReset TransitionOp = "reset"
	// OpClearAlertFlag disarms one alert flag.
	OpClearAlertFlag TransitionOp = "clearAlertFlag"
)

// Transition is one metrics store operation with its optional argument.
// Params: operation and, for OpClearAlertFlag, the flag to clear.
// Returns: transition value passed to the metrics store.
type Transition struct {
	Op   TransitionOp `json:"op"`
	Flag AlertFlag    `json:"flag,omitempty"`
}

// String renders transition for logs.
func (t Transition) String() string {
	if t.Op == OpClearAlertFlag {
		return string(t.Op) + "(" + string(t.Flag) + ")"
	}
	return string(t.Op)
}

// ClearAlertFlag builds clear transition for one flag.
// Params: flag to disarm.
// Returns: transition value.
func ClearAlertFlag(flag AlertFlag) Transition {
	return Transition{Op: OpClearAlertFlag, Flag: flag}
}

// Trigger names exposed to the presentation layer.
const (
	TriggerBillingSpike       = "billingSpike"
	TriggerChurnRisk          = "churnRisk"
	TriggerAIPerformanceBoost = "aiPerformanceBoost"
	TriggerPaymentFailures    = "paymentFailures"
	TriggerResetToNormal      = "resetToNormal"
)

var triggerTransitions = map[string]Transition{
	normalizeTriggerName(TriggerBillingSpike):       {Op: OpTriggerBillingSpike},
	normalizeTriggerName(TriggerChurnRisk):          {Op: OpTriggerChurnRisk},
	normalizeTriggerName(TriggerAIPerformanceBoost): {Op: OpBoostAIHandling},
	normalizeTriggerName(TriggerPaymentFailures):    {Op: OpTriggerPaymentFailures},
	normalizeTriggerName(TriggerResetToNormal):      {Op: OpReset},
}

// TriggerNames lists simulation trigger names in panel order.
// Params: none.
// Returns: trigger names.
func TriggerNames() []string {
	return []string{
		TriggerBillingSpike,
		TriggerChurnRisk,
		TriggerAIPerformanceBoost,
		TriggerPaymentFailures,
		TriggerResetToNormal,
	}
}

// ParseTrigger maps a simulation trigger name to its transition.
// Params: trigger name; case, "_" and "-" are ignored.
// Returns: transition or ErrUnknownTrigger.
func ParseTrigger(name string) (Transition, error) {
	transition, ok := triggerTransitions[normalizeTriggerName(name)]
	if !ok {
		return Transition{}, fmt.Errorf("%w %q", ErrUnknownTrigger, name)
	}
	return transition, nil
}

func normalizeTriggerName(name string) string {
	replacer := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(replacer.Replace(strings.TrimSpace(name)))
}
