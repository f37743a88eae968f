package contract

// Broker topology: exchanges, routing keys and the response queues the
// service consumes. A request/response pair is correlated by message id.
const (
	PaymentExchange = "payment"
	EmailExchange   = "email"

	RKPaymentIntentRequest       = "intent.request"
	RKCheckoutSessionRequest     = "checkout.request"
	RKPaymentVerificationRequest = "verification.request"
	RKEmailRequest               = "send.request"

	QueuePaymentIntentResponses       = "payment.intent.responses"
	QueueCheckoutSessionResponses     = "payment.checkout.responses"
	QueuePaymentVerificationResponses = "payment.verification.responses"
	QueueEmailNotifications           = "email.notifications"
)
