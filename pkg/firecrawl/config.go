package firecrawl

import (
	"firecrawl/pkg/config"
)

// DefaultAPIURL is used when no API URL is configured
const DefaultAPIURL = config.DefaultAPIURL

// Config holds the connection settings of a Client
type Config struct {
	// APIURL is the base URL every endpoint path is appended to
	APIURL string
	// APIKey is sent as a bearer token when non-empty
	APIKey string
}

// DefaultConfig returns the configuration used when nothing is overridden
func DefaultConfig() Config {
	return Config{APIURL: DefaultAPIURL}
}

// mergeConfig fills fields left unset in partial with their defaults
func mergeConfig(partial Config) Config {
	merged := DefaultConfig()
	if partial.APIURL != "" {
		merged.APIURL = partial.APIURL
	}
	if partial.APIKey != "" {
		merged.APIKey = partial.APIKey
	}
	return merged
}

// ConfigFromSettings converts the CLI's API settings into a client Config
func ConfigFromSettings(s config.APIConfig) Config {
	return Config{APIURL: s.URL, APIKey: s.APIKey}
}
