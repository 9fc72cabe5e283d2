// Package config provides the configuration structure for wikibinder and
// loads it from the YAML config file, .env files and environment variables.
package config
