package contract

// Payment intent outcome statuses reported by the payment service
const (
	PaymentIntentSucceeded = "succeeded"
	PaymentIntentFailed    = "failed"
)

// Checkout session outcome statuses
const (
	CheckoutCompleted = "CHECKOUT_COMPLETED"
	CheckoutExpired   = "CHECKOUT_EXPIRED"
)

// Payment verification outcomes
const (
	VerificationValid   = "VALID"
	VerificationInvalid = "INVALID"
)

// PaymentIntentRequest asks the payment service to create an intent
type PaymentIntentRequest struct {
	Envelope
	OrderID       string       `json:"order_id"`
	UserID        string       `json:"user_id"`
	Amount        MoneyPayload `json:"amount"`
	PaymentMethod string       `json:"payment_method"`
}

// PaymentIntentResponse reports the asynchronous outcome of an intent
type PaymentIntentResponse struct {
	Envelope
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// CheckoutSessionRequest asks for a hosted checkout session
type CheckoutSessionRequest struct {
	Envelope
	OrderID    string       `json:"order_id"`
	UserID     string       `json:"user_id"`
	Amount     MoneyPayload `json:"amount"`
	SuccessURL string       `json:"success_url"`
	CancelURL  string       `json:"cancel_url"`
}

// CheckoutSessionResponse reports the session outcome
type CheckoutSessionResponse struct {
	Envelope
	OrderID       string `json:"order_id"`
	SessionID     string `json:"session_id"`
	TransactionID string `json:"transaction_id,omitempty"`
	Status        string `json:"status"`
}

// PaymentVerificationRequest asks the payment service to verify a transaction
type PaymentVerificationRequest struct {
	Envelope
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

// PaymentVerificationResponse reports the verification outcome
type PaymentVerificationResponse struct {
	Envelope
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}
