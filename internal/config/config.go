package config

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL"`
	DatabaseURL string `env:"DATABASE_URL"`

	Redis    Redis    `envPrefix:"REDIS_"`
	Stripe   Stripe   `envPrefix:"STRIPE_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
	Sweeper  Sweeper  `envPrefix:"SWEEPER_"`
	Mail     Mail     `envPrefix:"MAIL_"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Stripe struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

type Checkout struct {
	// TTLs in seconds; SessionTTL is what `expiresAt` and the reported
	// ttl field are derived from.
	SessionTTL         int    `env:"SESSION_TTL" envDefault:"1800"`
	StockHoldTTL       int    `env:"STOCK_HOLD_TTL" envDefault:"900"`
	CompletionCacheTTL int    `env:"COMPLETION_CACHE_TTL" envDefault:"86400"`
	AccessTokenTTL     int    `env:"ACCESS_TOKEN_TTL" envDefault:"3600"`
	AccessTokenSecret  string `env:"ACCESS_TOKEN_SECRET"`
	Currency           string `env:"CURRENCY" envDefault:"usd"`
}

type Sweeper struct {
	Interval      int `env:"INTERVAL" envDefault:"300"`
	PendingMaxAge int `env:"PENDING_MAX_AGE" envDefault:"3600"`
}

type Mail struct {
	SMTPAddr string `env:"SMTP_ADDR"`
	From     string `env:"FROM" envDefault:"orders@example.com"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
