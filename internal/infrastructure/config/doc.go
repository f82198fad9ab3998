// Package config loads server settings from the environment with
// kelseyhightower/envconfig. Every field has a default, so an empty
// environment yields a working in-memory playground.
package config
