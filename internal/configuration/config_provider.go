package configuration

import "ssal/internal/configuration/properties"

// NewProvider wraps a loaded configuration for the services that only need
// one of its sections.
func NewProvider(cfg *properties.Config) properties.ConfigProvider {
	return properties.NewProvider(cfg)
}
