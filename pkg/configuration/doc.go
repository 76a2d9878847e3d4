// Package configuration provides loading facilities for bufstream's YAML
// configuration files and their environment variable overrides.
package configuration
