package config

import "github.com/angelmondragon/bazaarlink-backend/pkg/env"

const (
	EnvPrefix = env.Prefix

	AppEnvDev        = "dev"
	AppEnvProd       = "prod"
	AppEnvProduction = "production"
)

const (
	EnvAppEnv    = "BAZAARLINK_APP_ENV"
	EnvPort      = "BAZAARLINK_APP_PORT"
	EnvLogLevel  = "BAZAARLINK_LOG_LEVEL"
	EnvDBDSN     = "BAZAARLINK_DB_DSN"
	EnvDBHost    = "BAZAARLINK_DB_HOST"
	EnvDBUser    = "BAZAARLINK_DB_USER"
	EnvDBName    = "BAZAARLINK_DB_NAME"
	EnvRedisURL  = "BAZAARLINK_REDIS_URL"
	EnvJWTSecret = "BAZAARLINK_JWT_SECRET"
	EnvJWTIssuer = "BAZAARLINK_JWT_ISSUER"
	EnvJWTExp    = "BAZAARLINK_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID          = "BAZAARLINK_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic     = "BAZAARLINK_PUBSUB_ORDERS_TOPIC"
	EnvPubSubSettlementTopic = "BAZAARLINK_PUBSUB_SETTLEMENT_TOPIC"

	EnvCheckoutTaxRate          = "BAZAARLINK_CHECKOUT_TAX_RATE"
	EnvCheckoutFallbackFee      = "BAZAARLINK_CHECKOUT_FALLBACK_FEE_PAISE"
	EnvSettlementCommissionRate = "BAZAARLINK_SETTLEMENT_COMMISSION_RATE"
	EnvSettlementCashoutMinimum = "BAZAARLINK_SETTLEMENT_CASHOUT_MIN_PAISE"
	EnvOnlinePayments           = "BAZAARLINK_FEATURE_ONLINE_PAYMENTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
