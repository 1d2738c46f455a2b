package config

const (
	EnvPrefix = "BUILDMART"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "BUILDMART_APP_ENV"
	EnvDBDSN  = "BUILDMART_DB_DSN"
	EnvDBHost = "BUILDMART_DB_HOST"
	EnvDBUser = "BUILDMART_DB_USER"
	EnvDBName = "BUILDMART_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
