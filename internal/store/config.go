package store

import "go.uber.org/zap"

// DefaultGrowthQuantum matches the region package's DefaultSize; growth
// always proceeds in whole multiples of it (spec §8 scenario 4).
const DefaultGrowthQuantum = 8192

// Config configures a Store, following the teacher's Config/DefaultConfig
// constructor pattern.
type Config struct {
	GrowthQuantum int
	Logger        *zap.Logger
}

func DefaultConfig() Config {
	return Config{GrowthQuantum: DefaultGrowthQuantum, Logger: zap.NewNop()}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c Config) growthQuantum() int {
	if c.GrowthQuantum <= 0 {
		return DefaultGrowthQuantum
	}
	return c.GrowthQuantum
}
