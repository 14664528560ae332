// Package settings persists the user-facing connectivity settings (airplane
// mode, global HTTP proxy, PAC url) in a single-row SQLite table. Reads are
// served from an in-memory snapshot; writes go through transactional updates
// and refresh the snapshot.
package settings

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/net/http/httpproxy"
	_ "modernc.org/sqlite"
)

// HTTPProxy is the persisted global proxy configuration.
type HTTPProxy struct {
	Enabled    bool
	Host       string
	Port       uint16
	Exclusions []string
}

// Settings is the full persisted snapshot. The zero value is the factory
// default.
type Settings struct {
	AirplaneMode bool
	Proxy        HTTPProxy
	PACURL       string
}

// Store owns the settings database.
type Store struct {
	db  *sql.DB
	log *log.Logger

	mu      sync.RWMutex
	current Settings
}

// Open opens (or creates) the settings database at path, applies migrations,
// and loads the snapshot. A row that cannot be read falls back to factory
// defaults rather than failing startup.
func Open(path string, logger *log.Logger) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrateDB(db); err != nil {
		db.Close()
		return nil, err
	}
	s := &Store{db: db, log: logger}
	if err := s.reload(); err != nil {
		s.log.Printf("settings: load failed, using defaults: %v", err)
		s.current = Settings{}
	}
	return s, nil
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open settings db %s: %w", path, err)
	}

	// Single-writer: only one connection needed.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", p, err)
		}
	}
	return db, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Snapshot returns the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := s.current
	out.Proxy.Exclusions = append([]string(nil), s.current.Proxy.Exclusions...)
	return out
}

// AirplaneMode reports the persisted airplane-mode flag.
func (s *Store) AirplaneMode() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.AirplaneMode
}

// SetAirplaneMode persists the flag and reports whether it changed.
func (s *Store) SetAirplaneMode(on bool) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.AirplaneMode == on {
		return false, nil
	}
	if _, err := s.db.Exec(`UPDATE settings SET airplane_mode = ? WHERE id = 1`, boolInt(on)); err != nil {
		return false, fmt.Errorf("persist airplane mode: %w", err)
	}
	s.current.AirplaneMode = on
	return true, nil
}

// SetProxy persists the global HTTP proxy configuration.
func (s *Store) SetProxy(p HTTPProxy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`UPDATE settings SET proxy_enabled = ?, proxy_host = ?, proxy_port = ?, proxy_exclusions = ? WHERE id = 1`,
		boolInt(p.Enabled), p.Host, p.Port, strings.Join(p.Exclusions, ","),
	)
	if err != nil {
		return fmt.Errorf("persist proxy: %w", err)
	}
	p.Exclusions = append([]string(nil), p.Exclusions...)
	s.current.Proxy = p
	return nil
}

// SetPACURL persists the proxy auto-config url.
func (s *Store) SetPACURL(u string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`UPDATE settings SET pac_url = ? WHERE id = 1`, u); err != nil {
		return fmt.Errorf("persist pac url: %w", err)
	}
	s.current.PACURL = u
	return nil
}

// ProxyConfig renders the persisted proxy as an httpproxy.Config consumable
// by net/http transports. Returns nil when the proxy is disabled.
func (s *Store) ProxyConfig() *httpproxy.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.current.Proxy
	if !p.Enabled || p.Host == "" {
		return nil
	}
	addr := p.Host
	if p.Port != 0 {
		addr = fmt.Sprintf("%s:%d", p.Host, p.Port)
	}
	return &httpproxy.Config{
		HTTPProxy:  addr,
		HTTPSProxy: addr,
		NoProxy:    strings.Join(p.Exclusions, ","),
	}
}

// FactoryReset wipes all persisted settings back to defaults.
func (s *Store) FactoryReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`UPDATE settings SET airplane_mode = 0, proxy_enabled = 0, proxy_host = '', proxy_port = 0, proxy_exclusions = '', pac_url = '' WHERE id = 1`,
	)
	if err != nil {
		return fmt.Errorf("factory reset: %w", err)
	}
	s.current = Settings{}
	return nil
}

func (s *Store) reload() error {
	row := s.db.QueryRow(
		`SELECT airplane_mode, proxy_enabled, proxy_host, proxy_port, proxy_exclusions, pac_url FROM settings WHERE id = 1`,
	)
	var (
		airplane, proxyOn int
		host, excl, pac   string
		port              int
	)
	if err := row.Scan(&airplane, &proxyOn, &host, &port, &excl, &pac); err != nil {
		return fmt.Errorf("read settings row: %w", err)
	}
	cur := Settings{
		AirplaneMode: airplane != 0,
		Proxy: HTTPProxy{
			Enabled: proxyOn != 0,
			Host:    host,
			Port:    uint16(port),
		},
		PACURL: pac,
	}
	if excl != "" {
		cur.Proxy.Exclusions = strings.Split(excl, ",")
	}
	s.mu.Lock()
	s.current = cur
	s.mu.Unlock()
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
