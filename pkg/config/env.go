package config

// EnvPrefix is intentionally empty: every field names its variable explicitly.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv  = "ECOMJRM_APP_ENV"
	EnvDBDSN   = "ECOMJRM_DB_DSN"
	EnvDBHost  = "ECOMJRM_DB_HOST"
	EnvDBUser  = "ECOMJRM_DB_USER"
	EnvDBName  = "ECOMJRM_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
