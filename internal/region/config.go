package region

import "go.uber.org/zap"

// DefaultSize is the size of a freshly created region, and the smallest
// size the store ever sees after a growth (spec §8 scenario 4).
const DefaultSize = 8192

// GrowthQuantum is how much a region grows by when ensureSpace needs more
// room than is available; growth is always a whole multiple of it so
// repeated small appends don't thrash remap calls.
const GrowthQuantum = 8192

// Config configures Map, following the Config/DefaultConfig() shape of
// server/mvcc/backend's BackendConfig.
type Config struct {
	// Dir is the directory backing region files, analogous to a database's
	// lock directory. Every database gets its own file within it.
	Dir string
	// InitialSize is used only when creating a brand new region.
	InitialSize int
	Logger      *zap.Logger
}

// DefaultConfig returns a Config with InitialSize set to DefaultSize and a
// no-op logger; callers fill in Dir and usually Logger.
func DefaultConfig() Config {
	return Config{
		InitialSize: DefaultSize,
		Logger:      zap.NewNop(),
	}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
