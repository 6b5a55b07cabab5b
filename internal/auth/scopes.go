package auth

// Known OAuth scopes used by the service.
const (
	ScopeRecordsWrite = "records:write"
	ScopeRecordsRead  = "records:read"
	ScopeReportsRead  = "reports:read"
	ScopeSchemaAdmin  = "schema:admin"
	ScopeAdmin        = "admin"
)
