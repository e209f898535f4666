package conversation

// Action is the tagged identity of one clickable follow-up label.
// Labels without a dedicated confirmation map to ActionGeneric.
type Action int

const (
	ActionGeneric Action = iota
	ActionStartRetentionProtocol
	ActionEscalatePaymentOps
	ActionCreateRetentionCase
	ActionUpdateAIRules
	ActionAnalyzeBillingIssues
)

var actionLabels = map[string]Action{
	"Start Retention Protocol": ActionStartRetentionProtocol,
	"Escalate to Payment Ops":  ActionEscalatePaymentOps,
	"Create Retention Case":    ActionCreateRetentionCase,
	"Update AI Rules":          ActionUpdateAIRules,
	"Analyze Billing Issues":   ActionAnalyzeBillingIssues,
}

// ParseAction maps a label to its action tag.
// Matching is exact: case and surrounding whitespace are significant.
// Params: action label.
// Returns: dedicated action or ActionGeneric.
func ParseAction(label string) Action {
	if action, ok := actionLabels[label]; ok {
		return action
	}
	return ActionGeneric
}

// String renders action tag for logs.
func (a Action) String() string {
	switch a {
	case ActionStartRetentionProtocol:
		return "startRetentionProtocol"
	case ActionEscalatePaymentOps:
		return "escalatePaymentOps"
	case ActionCreateRetentionCase:
		return "createRetentionCase"
	case ActionUpdateAIRules:
		return "updateAiRules"
	case ActionAnalyzeBillingIssues:
		return "analyzeBillingIssues"
	default:
		return "generic"
	}
}

// confirmationBody returns the dedicated body of a non-generic action.
func confirmationBody(action Action) (string, bool) {
	body, ok := confirmationBodies[action]
	return body, ok
}
