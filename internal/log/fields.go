package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldTenantID   = "tenant_id"
	FieldTenantName = "tenant_name"
	FieldResource   = "resource"
	FieldCount      = "count"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentAPI       = "api"
	ComponentSession   = "session"
	ComponentFetch     = "fetch"
	ComponentDashboard = "dashboard"
	ComponentStore     = "store"
	ComponentEvents    = "events"
	ComponentWorker    = "worker"
)

// Operations defines standard operation names
const (
	OpInitialize    = "initialize"
	OpRefreshRoster = "refresh_roster"
	OpSelectTenant  = "select_tenant"
	OpFetch         = "fetch"
	OpPersist       = "persist"
	OpClear         = "clear"
	OpPublish       = "publish"
	OpShutdown      = "shutdown"
	OpStartup       = "startup"
)
