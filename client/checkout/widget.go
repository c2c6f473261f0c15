package checkout

import "context"

// Widget is the payment gateway's checkout UI. Open returns once the widget is
// showing; the outcome arrives later, on any goroutine, through exactly one of
// the handlers. ctx only bounds Open itself.
type Widget interface {
	Open(ctx context.Context, opts WidgetOptions, h WidgetHandlers) error
}

type WidgetOptions struct {
	Key         string
	OrderID     string
	Amount      int64
	Currency    string
	Name        string
	Description string
	Method      string
	Prefill     Prefill
	ThemeColor  string
}

type Prefill struct {
	Name    string
	Email   string
	Contact string
}

// PaymentResult is what the gateway reports after a captured payment.
type PaymentResult struct {
	PaymentID      string
	GatewayOrderID string
	Signature      string
}

type WidgetHandlers struct {
	OnSuccess func(PaymentResult)
	OnDismiss func()
}
