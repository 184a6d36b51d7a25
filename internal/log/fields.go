package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldWeek       = "week"
	FieldEmployee   = "employee"
	FieldNummer     = "nummer"
	FieldClient     = "client"
	FieldTotal      = "total"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLinda   = "linda"
	ComponentRooster = "rooster"
	ComponentFactuur = "factuur"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentPDF     = "pdf"
)
