// Package config defines the crawler configuration: global defaults,
// CLI-populated options, validation, and the optional .ecomcrawler YAML
// file with per-domain overrides.
package config
