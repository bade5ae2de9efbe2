package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldTransactionID    = "transaction_id"
	FieldTransactionTitle = "transaction_title"
	FieldTransactionType  = "transaction_type"
	FieldValueCents       = "value_cents"
	FieldCategory         = "category"
	FieldCategoryID       = "category_id"
	FieldImportFile       = "import_file"
	FieldRowCount         = "row_count"
	FieldSkippedRows      = "skipped_rows"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentTransaction = "transaction"
	ComponentImport      = "import"
	ComponentStorage     = "storage"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCLI         = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpList     = "list"
	OpImport   = "import"
	OpResolve  = "resolve"
	OpBalance  = "balance"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
