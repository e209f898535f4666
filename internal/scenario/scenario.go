// Package scenario replays scripted dashboard sessions on a manual clock.
package scenario

import (
	"sort"
	"time"

	"wfmassist/internal/domain"
)

// Step is one command issued at a fixed offset from scenario start.
// Params: offset and command; action steps without a message id target the
// latest message offering the label.
// Returns: scheduled scenario input.
type Step struct {
	At      time.Duration  `json:"at"`
	Command domain.Command `json:"command"`
}

// Scenario is a named, ordered list of steps plus trailing settle time.
// Params: name, description, steps, and settle duration after the last step.
// Returns: replayable script.
type Scenario struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Steps       []Step        `json:"steps"`
	Settle      time.Duration `json:"settle"`
}

// Duration returns total simulated time of the scenario.
func (s Scenario) Duration() time.Duration {
	var last time.Duration
	for _, step := range s.Steps {
		last = max(last, step.At)
	}
	return last + s.Settle
}

func simulate(at time.Duration, trigger string) Step {
	return Step{At: at, Command: domain.Command{Type: domain.CommandSimulate, Trigger: trigger}}
}

func say(at time.Duration, text string) Step {
	return Step{At: at, Command: domain.Command{Type: domain.CommandText, Text: text}}
}

func click(at time.Duration, label string) Step {
	return Step{At: at, Command: domain.Command{Type: domain.CommandAction, Label: label}}
}

const second = time.Second

var builtin = map[string]Scenario{
	"billing-spike": {
		Name:        "billing-spike",
		Description: "billing spike fires one alert after its confirmation delay",
		Steps:       []Step{simulate(0, domain.TriggerBillingSpike)},
		Settle:      3 * second,
	},
	"ai-boost": {
		Name:        "ai-boost",
		Description: "ai handling boost fires once and stays quiet while waiting",
		Steps: []Step{
			simulate(0, domain.TriggerAIPerformanceBoost),
			simulate(4*second, domain.TriggerAIPerformanceBoost),
		},
		Settle: 5 * second,
	},
	"churn": {
		Name:        "churn",
		Description: "churn risk raises cancellations and fires a high priority alert",
		Steps:       []Step{simulate(0, domain.TriggerChurnRisk)},
		Settle:      3 * second,
	},
	"payment-report": {
		Name:        "payment-report",
		Description: "payment failures produce the hourly metrics report",
		Steps:       []Step{simulate(0, domain.TriggerPaymentFailures)},
		Settle:      4 * second,
	},
	"retention-protocol": {
		Name:        "retention-protocol",
		Description: "billing spike answered with the retention protocol action",
		Steps: []Step{
			simulate(0, domain.TriggerBillingSpike),
			click(2500*time.Millisecond, "Start Retention Protocol"),
		},
		Settle: 2 * second,
	},
	"free-text": {
		Name:        "free-text",
		Description: "free text is echoed back after the typing delay",
		Steps:       []Step{say(0, "cancel my plan")},
		Settle:      3 * second,
	},
	"tour": {
		Name:        "tour",
		Description: "walks every trigger with action clicks and free text, then resets",
		Steps: []Step{
			simulate(0, domain.TriggerBillingSpike),
			click(3*second, "Escalate to Payment Ops"),
			simulate(6*second, domain.TriggerChurnRisk),
			click(10*second, "Create Retention Case"),
			simulate(13*second, domain.TriggerPaymentFailures),
			click(18*second, "Analyze Billing Issues"),
			simulate(21*second, domain.TriggerAIPerformanceBoost),
			say(25*second, "Schedule two more agents for billing"),
			click(28*second, "Update AI Rules"),
			simulate(31*second, domain.TriggerResetToNormal),
		},
		Settle: 5 * second,
	},
}

// Names lists built-in scenario names in lexical order.
// Params: none.
// Returns: scenario names.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns one built-in scenario by name.
// Params: scenario name.
// Returns: scenario copy and lookup result.
func Lookup(name string) (Scenario, bool) {
	s, ok := builtin[name]
	if !ok {
		return Scenario{}, false
	}
	s.Steps = append([]Step(nil), s.Steps...)
	return s, true
}
