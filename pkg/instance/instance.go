// Package instance names the running process in logs.
package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

// GetID returns the configured instance identifier, the platform dyno name or
// the hostname, in that order.
func GetID() string {
	if id := env.Get("STOREFRONT_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
