package config

import "time"

// Default values for environment-driven settings
const (
	DefaultPort        = "8080"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLogDir      = "logs"
	DefaultEnvironment = "dev"
	DefaultServiceName = "dailyfix-core"
	DefaultVersion     = "dev"

	DefaultBackendURL = "http://localhost:4000/api"
	DefaultPushURL    = "ws://localhost:4000/ws"
	DefaultPrincipal  = "default"

	DefaultDBName            = "dailyfix"
	DefaultDBMaxConns        = 20
	DefaultDBMaxConnIdleTime = 5 * time.Minute
	DefaultDBMaxConnLifetime = 30 * time.Minute

	DefaultLinkCodeTTL      = 60 * time.Second
	DefaultLinkPollInterval = 2 * time.Second
	DefaultSyncPollInterval = 2 * time.Second
	DefaultSyncCeiling      = 120 * time.Second
)
