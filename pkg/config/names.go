package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "SILL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "SILL_DB_DSN"
	EnvDBHost = "SILL_DB_HOST"
	EnvDBUser = "SILL_DB_USER"
	EnvDBName = "SILL_DB_NAME"

	EnvFleetMaxTireLives = "SILL_FLEET_MAX_TIRE_LIVES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
