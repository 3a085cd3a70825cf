// Package config loads the runtime configuration of settingsd from multiple
// sources (YAML files, environment variables, CLI flags) with precedence: CLI
// flags > YAML config > Environment variables > Defaults. It also decides
// where the settings document lives when none is configured.
package config
