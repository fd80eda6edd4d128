// Package config loads the textcal configuration.
//
// Values come from three layers, later layers winning: built-in defaults,
// a YAML file (by default config.yaml in the user config directory) and
// environment variables. A .env file in the working directory is loaded
// into the environment first. Command-line flags are applied on top by the
// cmd package.
package config
