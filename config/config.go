package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Dotenv   string `mapstructure:"dotenv"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Storage struct {
		Driver string `mapstructure:"driver"` // postgres | memory
	} `mapstructure:"storage"`
	Server struct {
		HTTPPort       string        `mapstructure:"HTTPPort"`
		Timeout        time.Duration `mapstructure:"HTTPTimeout"`
		PublicBaseURL  string        `mapstructure:"publicBaseURL"`
		AllowedOrigins []string      `mapstructure:"allowedOrigins"`
	} `mapstructure:"server"`
	JWT     JWTConfig    `mapstructure:"jwt"`
	Tokens  TokensConfig `mapstructure:"tokens"`
	Profile struct {
		Cooldown time.Duration `mapstructure:"cooldown"`
	} `mapstructure:"profile"`
	SMTP SMTPConfig `mapstructure:"smtp"`
}

// JWTConfig configures the session token issuer.
type JWTConfig struct {
	SecretKey    string        `mapstructure:"secretKey"`
	Issuer       string        `mapstructure:"issuer"`
	SessionTTL   time.Duration `mapstructure:"sessionTTL"`
	SecureCookie bool          `mapstructure:"secureCookie"`
}

// TokensConfig configures the out-of-band verification and reset tokens.
type TokensConfig struct {
	VerificationTTL time.Duration `mapstructure:"verificationTTL"`
	ResetTTL        time.Duration `mapstructure:"resetTTL"`
	BcryptCost      int           `mapstructure:"bcryptCost"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// JWT_SECRETKEY overrides jwt.secretKey and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}

// Validate fills defaults and rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "" {
		return errors.New("jwt.secretKey must be set")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "go-account-api"
	}
	if c.JWT.SessionTTL <= 0 {
		c.JWT.SessionTTL = 5 * 24 * time.Hour
	}
	if c.Tokens.VerificationTTL <= 0 {
		c.Tokens.VerificationTTL = 24 * time.Hour
	}
	if c.Tokens.ResetTTL <= 0 {
		c.Tokens.ResetTTL = time.Hour
	}
	if c.Tokens.BcryptCost == 0 {
		c.Tokens.BcryptCost = 10
	}
	if c.Profile.Cooldown <= 0 {
		c.Profile.Cooldown = 24 * time.Hour
	}
	if c.Server.HTTPPort == "" {
		c.Server.HTTPPort = "5000"
	}
	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = "postgres"
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	return nil
}
