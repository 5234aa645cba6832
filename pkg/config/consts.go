package config

const (
	EnvPrefix = "farmlink"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "FARMLINK_DB_DSN"
	EnvDBHost = "FARMLINK_DB_HOST"
	EnvDBUser = "FARMLINK_DB_USER"
	EnvDBName = "FARMLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
