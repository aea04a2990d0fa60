// Package config provides centralized configuration management for the
// CarrierDesk daemon: a single YAML file with sane defaults plus environment
// overrides for secrets such as the API key and the MySQL DSN.
package config
