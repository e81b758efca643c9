package main

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/oauthflow/pkg/logger"
	"github.com/dmitrymomot/oauthflow/pkg/oauth"
	"github.com/dmitrymomot/oauthflow/pkg/redis"
)

const (
	storeCookie = "cookie"
	storeRedis  = "redis"
)

type config struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ProvidersFile   string        `env:"PROVIDERS_FILE"`

	StateStore      string        `env:"STATE_STORE" envDefault:"cookie"`
	StateSecret     string        `env:"STATE_SECRET"`
	StateTTL        time.Duration `env:"STATE_TTL" envDefault:"10m"`
	InsecureCookies bool          `env:"INSECURE_COOKIES"`

	Log      logger.Config
	Redis    redis.Config
	Google   oauth.GoogleConfig
	GitHub   oauth.GitHubConfig
	LinkedIn oauth.LinkedInConfig
}

func loadConfig() (config, error) {
	return env.ParseAs[config]()
}
