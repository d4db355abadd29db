package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/flagx"
)

// parseFlags overlays selected fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":4000")
//	-d string   PostgreSQL DSN
//	-s string   session token HMAC secret
//	-k string   key wrapping secret
//	-t int      session token validity, hours
//	-l string   log level
//	-r string   Redis address for login throttling
//	-b string   S3 bucket for archive export
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-k", "-t", "-l", "-r", "-b", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session token secret")
	fs.StringVar(&config.KeyWrapSecret, "k", config.KeyWrapSecret, "key wrapping secret")
	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "session token validity (in hours)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// -t only overrides when given; a 90m value from JSON must survive.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Hour
		}
	})
}
