package snapshot

import "go.uber.org/zap"

// Config identifies the requesting attachment and the transaction that
// will own the assembled snapshot (spec §4.6: "single-use object owned
// by one transaction").
type Config struct {
	Logger *zap.Logger

	DatabaseName        string // resolved name the rel_database filter matches against
	UserName            string
	Locksmith           bool
	OwningTransactionID int64 // target of any blob reparenting performed while materializing rows
}

// DefaultConfig returns a zero-value Config with a no-op logger.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
