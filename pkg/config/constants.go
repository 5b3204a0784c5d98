package config

const (
	// EnvPrefix is passed to envconfig; variables are read verbatim from the
	// envconfig tags below, so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "STAGEPASS_DB_DSN"
	EnvDBHost = "STAGEPASS_DB_HOST"
	EnvDBUser = "STAGEPASS_DB_USER"
	EnvDBName = "STAGEPASS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
