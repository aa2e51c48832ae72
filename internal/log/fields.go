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
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldFile       = "file"
	FieldFormat     = "format"
	FieldAccount    = "account"
	FieldCategory   = "category"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldCount      = "count"
	FieldNew        = "new"
	FieldDuplicates = "duplicates"
	FieldRowErrors  = "row_errors"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentParser    = "parser"
	ComponentRules     = "rules"
	ComponentTracker   = "tracker"
	ComponentAnalyzer  = "analyzer"
	ComponentRecurring = "recurring"
	ComponentBudget    = "budget"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
)

// Operations defines standard operation names
const (
	OpImport   = "import"
	OpSave     = "save"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
