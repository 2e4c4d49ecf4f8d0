// Package config loads the gigbus configuration.
//
// Configuration comes from three sources, later ones overriding earlier:
//
//  1. Built-in defaults (Default)
//  2. A YAML file (Load)
//  3. GIGBUS_* environment variables (ApplyEnv)
//
// Example file:
//
//	bus:
//	  max_subscribers: 20
//	  history_size: 500
//	  publish_timeout: 2s
//	log:
//	  level: debug
//	  format: console
//	metrics:
//	  enabled: true
//	  addr: ":9191"
package config
