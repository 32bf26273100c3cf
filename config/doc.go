// Package config provides configuration loading and validation for the
// volstore sandbox service.
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
//  3. Environment variables (VOLSTORE_SANDBOX_ prefix)
//  4. CLI flags
//
// Without explicit files, sandbox.yaml in the working directory is read if
// present.
//
// # Environment Variables
//
// All config keys map to environment variables with VOLSTORE_SANDBOX_ prefix:
//   - server.port → VOLSTORE_SANDBOX_SERVER_PORT
//   - database.dsn → VOLSTORE_SANDBOX_DATABASE_DSN
//   - auth.secret → VOLSTORE_SANDBOX_AUTH_SECRET
//
// # Configuration Structure
//
//   - Server: port, public_url, max_upload_size
//   - Database: type (sqlite/postgres), DSN, and the volumes table name
//   - Storage: directory holding one subdirectory per volume
//   - Auth: token secret, issuer, token_ttl and users (inline or file)
//   - Agent: existing_dir_status (409 or 202)
//   - CORS: cross-origin resource sharing settings
//   - Log: logging level
package config
