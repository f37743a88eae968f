package contract

// Email template identifiers understood by the email service
const (
	EmailTemplateWelcome           = "WELCOME"
	EmailTemplateOrderConfirmation = "ORDER_CONFIRMATION"
	EmailTemplatePaymentFailure    = "PAYMENT_FAILURE"
)

// Email delivery statuses reported back by the email service
const (
	EmailDeliverySent    = "SENT"
	EmailDeliveryFailed  = "FAILED"
	EmailDeliveryBounced = "BOUNCED"
)

// EmailRequest asks the email service to send a templated message
type EmailRequest struct {
	Envelope
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Variables map[string]string `json:"variables,omitempty"`
}

// EmailDeliveryNotification reports the delivery outcome of a request
type EmailDeliveryNotification struct {
	Envelope
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
}
