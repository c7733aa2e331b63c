package types

type RunMode string

const (
	// ModeLocal runs the API server, the ledger sync router and the in-process
	// rollover scheduler
	ModeLocal RunMode = "local"
	// ModeAPI runs the API server and the ledger sync router. Rollover is
	// left to an external scheduler calling the cron endpoints.
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseDriver names a database/sql driver registered by the service
type DatabaseDriver string

const (
	DatabaseDriverPostgres DatabaseDriver = "postgres"
	DatabaseDriverSQLite   DatabaseDriver = "sqlite3"
)
