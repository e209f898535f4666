package scenario

import (
	"fmt"
	"sort"
	"time"

	"wfmassist/internal/app"
	"wfmassist/internal/clock"
	"wfmassist/internal/domain"
	"wfmassist/internal/logging"
)

// DefaultStart is the manual clock origin of replays.
var DefaultStart = time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)

// Entry is one transcript message with its offset from scenario start.
type Entry struct {
	Offset  time.Duration  `json:"offset"`
	Message domain.Message `json:"message"`
}

// Report is the outcome of one replay.
// Params: scenario name, simulated duration, transcript entries, final status.
// Returns: printable replay result.
type Report struct {
	Scenario string        `json:"scenario"`
	Duration time.Duration `json:"duration"`
	Entries  []Entry       `json:"entries"`
	Final    domain.Status `json:"final"`
}

// Run replays scenario against a fresh dashboard on a manual clock.
// Clock and message ids of base are replaced so replays are deterministic.
// Params: scenario and base dashboard options.
// Returns: replay report or first rejected step.
func Run(s Scenario, base app.Options) (Report, error) {
	clk := clock.NewManual(DefaultStart)
	counter := 0
	base.Clock = clk
	base.NewID = func() string {
		counter++
		return fmt.Sprintf("msg-%03d", counter)
	}
	if base.Logger == nil {
		base.Logger = logging.Discard()
	}

	dashboard := app.NewDashboard(base)
	defer dashboard.Close()

	steps := append([]Step(nil), s.Steps...)
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].At < steps[j].At })

	var elapsed time.Duration
	for i, step := range steps {
		if step.At > elapsed {
			clk.Advance(step.At - elapsed)
			elapsed = step.At
		}
		command := step.Command
		if command.Type == domain.CommandAction && command.MessageID == "" {
			command.MessageID = offeringMessage(dashboard.Transcript(), command.Label)
		}
		if _, err := dashboard.Handle(command); err != nil {
			return Report{}, fmt.Errorf("scenario %s step %d: %w", s.Name, i+1, err)
		}
	}
	if s.Settle > 0 {
		clk.Advance(s.Settle)
		elapsed += s.Settle
	}

	transcript := dashboard.Transcript()
	entries := make([]Entry, len(transcript))
	for i, message := range transcript {
		entries[i] = Entry{Offset: message.Timestamp.Sub(DefaultStart), Message: message}
	}
	return Report{
		Scenario: s.Name,
		Duration: elapsed,
		Entries:  entries,
		Final:    dashboard.Snapshot(),
	}, nil
}

// RunNamed replays one built-in scenario.
// Params: scenario name and base dashboard options.
// Returns: replay report or unknown-name error.
func RunNamed(name string, base app.Options) (Report, error) {
	s, ok := Lookup(name)
	if !ok {
		return Report{}, fmt.Errorf("unknown scenario %q", name)
	}
	return Run(s, base)
}

// offeringMessage finds the latest message offering label.
func offeringMessage(transcript []domain.Message, label string) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		for _, action := range transcript[i].Actions {
			if action == label {
				return transcript[i].ID
			}
		}
	}
	return ""
}
