// Package config provides configuration structures and utilities for
// LinkLens. It defines the crawl settings, report preferences, and the
// optional .linklens YAML file with per-site overrides.
package config
