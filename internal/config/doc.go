// Package config loads server, database, cache and job settings from
// defaults, an optional config.yaml and PLANNER_ environment variables,
// then validates them before any component starts.
package config
