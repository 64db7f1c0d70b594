package coordination

import "go.uber.org/zap"

// Config configures a Lock, following the teacher's Config/DefaultConfig
// constructor pattern.
type Config struct {
	Logger *zap.Logger
}

func DefaultConfig() Config {
	return Config{Logger: zap.NewNop()}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
