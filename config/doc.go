// Package config provides configuration loading and validation for tobi,
// and the live settings store read by the request engine.
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
//  3. Environment variables (TOBI_ prefix)
//  4. CLI flags
//
// # Usage
//
//	cfg, err := config.Load([]string{"tobi.yaml"}, cmd.Flags())
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
// All config keys map to environment variables with TOBI_ prefix:
//   - server.port → TOBI_SERVER_PORT
//   - server.path → TOBI_SERVER_PATH
//   - access_log.database.dsn → TOBI_ACCESS_LOG_DATABASE_DSN
//
// # Live Settings
//
// Store holds Host, Port and Path for the running server. Reads are lock
// free; Set swaps in a new snapshot:
//
//	settings := config.NewStoreFromConfig(cfg.Server)
//	root, _ := settings.Get(config.KeyPath)
//	ok := settings.Set(config.KeyPath, "/srv/www/")
package config
