package region

import "sync"

// Manager hands out one shared *Region per database name to every caller
// within this process, refcounting attach/detach so the mapping is torn
// down only when the last contributing attachment of this process goes
// away (spec §4.1). It does not coordinate across processes; that is the
// region file's job.
type Manager struct {
	cfg Config

	mu      sync.Mutex
	entries map[string]*managedRegion
}

type managedRegion struct {
	region *Region
	refs   int
}

// NewManager returns a Manager that opens region files under cfg.Dir.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, entries: make(map[string]*managedRegion)}
}

// Acquire returns the Region for name, mapping it on first use within this
// process. Each call must be matched by a Release.
func (m *Manager) Acquire(name string) (*Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[name]; ok {
		e.refs++
		return e.region, nil
	}

	r, err := Map(m.cfg, name)
	if err != nil {
		return nil, err
	}
	m.entries[name] = &managedRegion{region: r, refs: 1}
	return r, nil
}

// Release drops this process's hold on name's region. When the last
// holder releases, the mapping is unmapped; if the region is empty of
// live elements (used == headerSize) the backing file is also removed,
// since no other process can still be contributing to it.
func (m *Manager) Release(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[name]
	if !ok {
		return nil
	}
	e.refs--
	if e.refs > 0 {
		return nil
	}
	delete(m.entries, name)

	empty := e.region.Used() == headerSize
	if err := e.region.Unmap(); err != nil {
		return err
	}
	if empty {
		return e.region.Remove()
	}
	return nil
}
