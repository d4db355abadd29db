package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/flagx"
	"github.com/dmitrijs2005/moodjournal/internal/timex"
)

// JsonConfig mirrors Config for unmarshalling. Every field is optional: a
// field missing from the file leaves the current value untouched.
type JsonConfig struct {
	HTTPAddr              *string         `json:"http_addr"`
	DatabaseDSN           *string         `json:"database_dsn"`
	SecretKey             *string         `json:"secret_key"`
	KeyWrapSecret         *string         `json:"key_wrap_secret"`
	TokenValidityDuration *timex.Duration `json:"token_validity_duration"`
	BcryptCost            *int            `json:"bcrypt_cost"`
	LogLevel              *string         `json:"log_level"`
	CORSOrigins           []string        `json:"cors_origins"`
	ShutdownTimeout       *timex.Duration `json:"shutdown_timeout"`

	RedisAddr       *string         `json:"redis_addr"`
	RedisPassword   *string         `json:"redis_password"`
	RedisDB         *int            `json:"redis_db"`
	LoginRateLimit  *int            `json:"login_rate_limit"`
	LoginRateWindow *timex.Duration `json:"login_rate_window"`

	S3RootUser         *string         `json:"s3_root_user"`
	S3RootPassword     *string         `json:"s3_root_password"`
	S3Bucket           *string         `json:"s3_bucket"`
	S3Region           *string         `json:"s3_region"`
	S3BaseEndpoint     *string         `json:"s3_base_endpoint"`
	ArchiveURLValidity *timex.Duration `json:"archive_url_validity"`
}

// parseJson overlays values from the file named by -c/-config. Nothing is
// loaded when the flag is absent. An unreadable or invalid file panics.
func parseJson(config *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.KeyWrapSecret, c.KeyWrapSecret)
	setDuration(&config.TokenValidityDuration, c.TokenValidityDuration)
	setInt(&config.BcryptCost, c.BcryptCost)
	setString(&config.LogLevel, c.LogLevel)
	if c.CORSOrigins != nil {
		config.CORSOrigins = c.CORSOrigins
	}
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.RedisPassword, c.RedisPassword)
	setInt(&config.RedisDB, c.RedisDB)
	setInt(&config.LoginRateLimit, c.LoginRateLimit)
	setDuration(&config.LoginRateWindow, c.LoginRateWindow)

	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.ArchiveURLValidity, c.ArchiveURLValidity)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
