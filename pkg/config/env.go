package config

// EnvPrefix is passed to envconfig.Process; individual fields carry explicit
// names so the prefix only matters for unannotated fields.
const EnvPrefix = "SWITCHBOARD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "SWITCHBOARD_APP_ENV"
	EnvPort     = "SWITCHBOARD_APP_PORT"
	EnvDBDSN    = "SWITCHBOARD_DB_DSN"
	EnvDBHost   = "SWITCHBOARD_DB_HOST"
	EnvDBUser   = "SWITCHBOARD_DB_USER"
	EnvDBName   = "SWITCHBOARD_DB_NAME"
	EnvRedisURL = "SWITCHBOARD_REDIS_URL"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
