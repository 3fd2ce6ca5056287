// Package configpkg provides parsing functionality for environment variables.
package configpkg

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
//
// The values are read by viper fron a config file or environement variables.
type Config struct {
	DBDriver             string        `mapstructure:"DB_DRIVER"`
	DBSource             string        `mapstructure:"DB_SOURCE"`
	ServerAddress        string        `mapstructure:"SERVER_ADDRESS"`
	TokenSymmetricKey    string        `mapstructure:"TOKEN_SYMMETRIC_KEY"`
	TokenKind            string        `mapstructure:"TOKEN_KIND"`
	AccessTokenDuration  time.Duration `mapstructure:"ACCESS_TOKEN_DURATION"`
	RefreshTokenDuration time.Duration `mapstructure:"REFRESH_TOKEN_DURATION"`
	Environement         string        `mapstructure:"GO_ENV"`
	LockTimeout          time.Duration `mapstructure:"LOCK_TIMEOUT"`
	TxMaxRetries         int           `mapstructure:"TX_MAX_RETRIES"`
	TxRetryBaseDelay     time.Duration `mapstructure:"TX_RETRY_BASE_DELAY"`
	AMQPURL              string        `mapstructure:"AMQP_URL"`
	AMQPExchange         string        `mapstructure:"AMQP_EXCHANGE"`
	AdminUsername        string        `mapstructure:"ADMIN_USERNAME"`
	AdminPassword        string        `mapstructure:"ADMIN_PASSWORD"`
	AdminEmail           string        `mapstructure:"ADMIN_EMAIL"`
	CORSAllowedOrigins   []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("TOKEN_KIND", "paseto")
	v.SetDefault("ACCESS_TOKEN_DURATION", 10*time.Minute)
	v.SetDefault("REFRESH_TOKEN_DURATION", 24*time.Hour)
	v.SetDefault("LOCK_TIMEOUT", 2*time.Second)
	v.SetDefault("TX_MAX_RETRIES", 3)
	v.SetDefault("TX_RETRY_BASE_DELAY", 20*time.Millisecond)
	v.SetDefault("AMQP_EXCHANGE", "ledger.operations")
	v.SetDefault("CORS_ALLOWED_ORIGINS", []string{"*"})
}

// Load read configuration from file or environment variables.
func Load(path string) (Config, error) {
	var c Config

	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		return c, err
	}

	err = v.Unmarshal(&c)
	if err != nil {
		return c, err
	}

	return c, nil
}
