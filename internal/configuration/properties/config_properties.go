package properties

import "time"

type ApplicationConfigProperties struct {
	Profile        string `yaml:"profile"`
	LogLevel       string `yaml:"log-level"`
	LogColor       bool   `yaml:"log-color"`
	ResetRollupSet bool   `yaml:"reset-rollup-set"`
}

type TransportConfigProperties struct {
	Network         string `yaml:"network"`
	Address         string `yaml:"address"`
	Port            string `yaml:"port"`
	ReadTimeout     uint64 `yaml:"read-timeout"`
	WriteTimeout    uint64 `yaml:"write-timeout"`
	RequestTimeout  uint64 `yaml:"request-timeout"`
	ShutdownTimeout uint64 `yaml:"shutdown-timeout"`
	MaxBodyBytes    int64  `yaml:"max-body-bytes"`
}

type WriteAheadLogProperties struct {
	NoSync    bool   `yaml:"no-sync"`
	SnapCount uint64 `yaml:"snap-count"`
}

type BoltProperties struct {
	OpenTimeout uint64 `yaml:"open-timeout"`
}

type LevelDBProperties struct {
	NoSync bool `yaml:"no-sync"`
}

type StoreConfigProperties struct {
	Engine      string                  `yaml:"engine"`
	Dir         string                  `yaml:"dir"`
	LockTimeout uint64                  `yaml:"lock-timeout"`
	Wal         WriteAheadLogProperties `yaml:"wal"`
	Bolt        BoltProperties          `yaml:"bolt"`
	LevelDB     LevelDBProperties       `yaml:"leveldb"`
}

type MetricsConfigProperties struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    string `yaml:"port"`
}

type Config struct {
	Application ApplicationConfigProperties `yaml:"app"`
	Transport   TransportConfigProperties   `yaml:"transport"`
	Store       StoreConfigProperties       `yaml:"store"`
	Metrics     MetricsConfigProperties     `yaml:"metrics"`
}

// Timeouts in the yaml files are expressed in milliseconds.

func (c *TransportConfigProperties) Addr() string {
	return c.Address + ":" + c.Port
}

func (c *TransportConfigProperties) ReadTimeoutDuration() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Millisecond
}

func (c *TransportConfigProperties) WriteTimeoutDuration() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Millisecond
}

func (c *TransportConfigProperties) RequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

func (c *TransportConfigProperties) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Millisecond
}

func (c *StoreConfigProperties) LockTimeoutDuration() time.Duration {
	return time.Duration(c.LockTimeout) * time.Millisecond
}

func (c *BoltProperties) OpenTimeoutDuration() time.Duration {
	return time.Duration(c.OpenTimeout) * time.Millisecond
}

func (c *MetricsConfigProperties) Addr() string {
	return c.Address + ":" + c.Port
}
