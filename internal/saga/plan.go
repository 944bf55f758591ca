package saga

// Canonical step names, in execution order. Every saga's step plan is this
// fixed sequence regardless of payment type; individual steps decide for
// themselves whether to run (e.g. FraudScore returns Skipped when the
// tenant's payment type has fraud scoring disabled).
const (
	StepValidate            = "Validate"
	StepFraudScore          = "FraudScore"
	StepReserveFunds        = "ReserveFunds"
	StepRoute               = "Route"
	StepSubmitToClearing    = "SubmitToClearing"
	StepAwaitClearingResult = "AwaitClearingResult"
	StepPostLedger          = "PostLedger"
	StepNotify              = "Notify"
)

// DefaultPlan is the canonical step name order every saga instance is
// initialised with.
var DefaultPlan = []string{
	StepValidate,
	StepFraudScore,
	StepReserveFunds,
	StepRoute,
	StepSubmitToClearing,
	StepAwaitClearingResult,
	StepPostLedger,
	StepNotify,
}

// cancelCutoffIndex is the first step index at which a payment may already
// be irrevocable: once SubmitToClearing has been reached, a pending cancel
// request (camt.055) is no longer honoured.
var cancelCutoffIndex = indexOf(StepSubmitToClearing)

func indexOf(step string) int {
	for i, s := range DefaultPlan {
		if s == step {
			return i
		}
	}
	return len(DefaultPlan)
}

// RailBound reports whether a step's retry budget should use the rail-bound
// ceiling (3 attempts) rather than the internal ceiling (5 attempts).
func RailBound(stepName string) bool {
	switch stepName {
	case StepSubmitToClearing, StepAwaitClearingResult:
		return true
	default:
		return false
	}
}
