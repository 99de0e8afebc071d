// Package env loads .env files for jsonpost.
//
// Values from a .env file fill in JSONPOST_* overrides and ${VAR}
// references in header values without replacing variables that are
// already set in the process environment.
package env
