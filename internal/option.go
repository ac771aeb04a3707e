package internal

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config      *Config
	stdioTenant string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStdioTenant switches the application into MCP stdio mode, serving the
// given tenant on stdin/stdout instead of starting the HTTP server.
func WithStdioTenant(tenantID string) Option {
	return func(a *application) {
		a.stdioTenant = tenantID
	}
}
