// Package config loads and validates the IoTorch tool configuration.
//
// Configuration is loaded from YAML with hardcoded defaults underneath and
// IOTORCH_* environment variable overrides on top. Note that this is the
// tool's own configuration; the mctpd daemon configuration file (the source
// of the dynamic EID range) is a separate, read-only input parsed by the
// mctpd package.
package config
