package properties

type ConfigProvider interface {
	GetApplication() *ApplicationConfigProperties
	GetTransport() *TransportConfigProperties
	GetStore() *StoreConfigProperties
	GetMetrics() *MetricsConfigProperties
}

type AppConfigProvider struct {
	config *Config
}

func NewProvider(cfg *Config) *AppConfigProvider {
	return &AppConfigProvider{config: cfg}
}

func (c *AppConfigProvider) GetApplication() *ApplicationConfigProperties {
	return &c.config.Application
}

func (c *AppConfigProvider) GetTransport() *TransportConfigProperties {
	return &c.config.Transport
}

func (c *AppConfigProvider) GetStore() *StoreConfigProperties {
	return &c.config.Store
}

func (c *AppConfigProvider) GetMetrics() *MetricsConfigProperties {
	return &c.config.Metrics
}
