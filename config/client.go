package config

import (
	"fmt"

	"github.com/buildwithgrove/outcall/outcall"
)

// maxMaxResponseBytes is the largest response cap the execution
// environment accepts.
const maxMaxResponseBytes = 2 * 1024 * 1024

// ClientConfig configures the outcall client.
type ClientConfig struct {
	// MaxResponseBytes is the response cap applied when a call does not
	// set one. Defaults to 500KB.
	MaxResponseBytes uint64 `yaml:"max_response_bytes"`
}

func (c *ClientConfig) hydrateClientDefaults() {
	if c.MaxResponseBytes == 0 {
		c.MaxResponseBytes = outcall.DefaultMaxResponseBytes
	}
}

func (c ClientConfig) validate() error {
	if c.MaxResponseBytes > maxMaxResponseBytes {
		return fmt.Errorf("max_response_bytes %d exceeds the %d bytes limit", c.MaxResponseBytes, maxMaxResponseBytes)
	}
	return nil
}
