// Package config loads runtime configuration for the moodjournal client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by --config / -c (see (*Config).ApplyFile).
//  3. Command-line flags, applied by the cli package when set explicitly.
//
// # JSON schema
//
// Durations use timex.Duration, so "30s", "1d" and integer nanoseconds all
// work:
//
//	{
//	  "server_url": "http://localhost:4000",
//	  "db_path": "/home/me/.moodjournal/client.db",
//	  "request_timeout": "15s",
//	  "legacy_ecb": false,
//	  "log_level": "warn"
//	}
package config
