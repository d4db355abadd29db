package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/timex"
)

var osLookupEnv = os.LookupEnv

// parseEnv overlays values from environment variables. PORT, JWT_SECRET,
// AES_KEY_SECRET and JWT_EXPIRES_IN keep the names existing deployments
// already set. Malformed numbers or durations panic.
func parseEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				panic(fmt.Errorf("env %s: %w", name, err))
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok && v != "" {
			d, err := timex.ParseDuration(v)
			if err != nil {
				panic(fmt.Errorf("env %s: %w", name, err))
			}
			*dst = d
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		config.HTTPAddr = ":" + port
	}
	str("HTTP_ADDR", &config.HTTPAddr)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("JWT_SECRET", &config.SecretKey)
	str("AES_KEY_SECRET", &config.KeyWrapSecret)
	dur("JWT_EXPIRES_IN", &config.TokenValidityDuration)
	num("BCRYPT_COST", &config.BcryptCost)
	str("LOG_LEVEL", &config.LogLevel)
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		config.CORSOrigins = splitList(v)
	}

	str("REDIS_ADDR", &config.RedisAddr)
	str("REDIS_PASSWORD", &config.RedisPassword)
	num("REDIS_DB", &config.RedisDB)
	num("LOGIN_RATE_LIMIT", &config.LoginRateLimit)
	dur("LOGIN_RATE_WINDOW", &config.LoginRateWindow)

	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
