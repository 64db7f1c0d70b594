package collector

import "go.uber.org/zap"

// Config configures a Collector. Mirrors the Config/DefaultConfig shape
// used throughout this module (region.Config, store.Config).
type Config struct {
	Logger *zap.Logger
}

// DefaultConfig returns a Config with a no-op logger.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
