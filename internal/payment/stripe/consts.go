package stripe

// GatewayName identifies payments handled by this gateway.
const GatewayName = "stripe"

// Capture methods.
const (
	AutomaticCaptureMethod = "automatic"
	ManualCaptureMethod    = "manual"
)

// Payment intent statuses.
const (
	AuthorizedStatus = "requires_capture"
	SuccessStatus    = "succeeded"
	ProcessingStatus = "processing"
)

// ActionRequiredStatuses are the intent statuses that wait on the customer.
var ActionRequiredStatuses = []string{
	"requires_payment_method",
	"requires_confirmation",
	"requires_action",
}
