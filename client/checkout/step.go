package checkout

type Step int

const (
	StepPersonalInfo Step = iota
	StepShipping
	StepPayment
)

func (s Step) String() string {
	switch s {
	case StepPersonalInfo:
		return "personal-info"
	case StepShipping:
		return "shipping"
	case StepPayment:
		return "payment"
	}
	return "unknown"
}

// Outcome is where the checkout attempt ended up.
type Outcome int

const (
	// OutcomePending: still filling in forms, or waiting on the payment widget.
	OutcomePending Outcome = iota
	// OutcomeCancelled: the last widget was dismissed; payment may be retried.
	OutcomeCancelled
	// OutcomeConfirmed: the order exists and the cart was cleared.
	OutcomeConfirmed
	// OutcomeOrderFailed: the payment went through but no order was created.
	// It needs support and is never retried automatically.
	OutcomeOrderFailed
	// OutcomeAborted: the session expired mid-checkout.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeOrderFailed:
		return "order-failed"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

func (o Outcome) terminal() bool {
	return o == OutcomeConfirmed || o == OutcomeOrderFailed || o == OutcomeAborted
}
