package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// APIConfig configures the SDK side: where the storefront backend lives and
// how the CLI persists its auth cookie between runs.
type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	CookieFile string
}

type CheckoutConfig struct {
	TaxRate       float64
	ConfirmDelay  time.Duration
	CompleteDelay time.Duration
}

// SecurityConfig configures the stub backend's token minting.
type SecurityConfig struct {
	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// StubConfig configures the in-memory development backend.
type StubConfig struct {
	HTTP        HTTPConfig
	Security    SecurityConfig
	Seed        bool
	CartTTL     time.Duration
	JanitorSpec string
}

type AppConfig struct {
	Environment      string
	API              APIConfig
	Checkout         CheckoutConfig
	Stub             StubConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("SHOPFRONT")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.baseurl", "http://127.0.0.1:8080/api/v1")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.cookiefile", ".shopfront-cookie.json")

	v.SetDefault("checkout.taxrate", 0.08)
	v.SetDefault("checkout.confirmdelay", "2s")
	v.SetDefault("checkout.completedelay", "3s")

	v.SetDefault("stub.http.host", "0.0.0.0")
	v.SetDefault("stub.http.port", 8080)
	v.SetDefault("stub.http.readtimeout", "10s")
	v.SetDefault("stub.http.writetimeout", "15s")
	v.SetDefault("stub.http.idletimeout", "60s")

	v.SetDefault("stub.security.jwtsecret", "dev-only-secret")
	v.SetDefault("stub.security.accessttl", "1h")
	v.SetDefault("stub.security.refreshttl", "720h") // 30 days
	v.SetDefault("stub.seed", true)
	v.SetDefault("stub.cartttl", "168h")
	v.SetDefault("stub.janitorspec", "0 0 * * * *") // hourly
}
