// Package config provides configuration loading and validation for photozip.
//
// The package handles YAML configuration files, environment variables, and CLI flags
// with automatic merging and validation using go-playground/validator.
//
// # Configuration Precedence
//
// Values are loaded in this order (later sources override earlier ones):
//
//  1. Default values
//  2. Configuration file(s) - multiple files merged left-to-right
//  3. Environment variables (PHOTOZIP_ prefix, plus legacy names)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"photozip.yaml"}, cmd.Flags())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Store in context for subcommands
//	ctx = config.WithContext(ctx, cfg)
//
//	// Retrieve later
//	cfg, err = config.FromContext(ctx)
//
// # Environment Variables
//
// All config keys map to environment variables with PHOTOZIP_ prefix:
//   - server.port → PHOTOZIP_SERVER_PORT
//   - archive.producer → PHOTOZIP_ARCHIVE_PRODUCER
//   - history.dsn → PHOTOZIP_HISTORY_DSN
//
// Three unprefixed names are also read, after their prefixed form:
//   - PHOTOS_DIRECTORY → photos.path
//   - MIMIC_DOWNLOAD_LATENCY → archive.latency (seconds, fractional)
//   - ENABLE_LOGGING → log.enabled
//
// # Flags
//
// The serve command maps --photos_directory, --mimic_download_latency,
// --enable_logging, --port and --producer onto the keys above.
//
// # Configuration Structure
//
// The Config struct contains:
//   - Server: port, shutdown_timeout and chunk_write_timeout (seconds)
//   - Photos: path of the directory holding one subdirectory per archive
//   - Archive: latency, producer (zip/native), zip_binary and chunk_size
//   - Index: template path of the index page
//   - History: optional type (sqlite/postgres), DSN and table name
//   - CORS: cross-origin settings for the HTTP server
//   - Log: enabled and level
package config
