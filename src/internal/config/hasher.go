package config

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/maksimkurb/keen-route/src/internal/hashing"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

const hashCacheTTL = 5 * time.Minute

// ConfigHasher calculates MD5 hash of the configuration that affects a running session.
// It maintains the cached current hash (file on disk) and the active hash
// (what the session was started with).
type ConfigHasher struct {
	configPath string

	// Current hash (from config file) with caching
	currentHash     string
	currentHashTime time.Time

	// Active hash (from running session)
	activeHash string

	mu sync.RWMutex
}

// NewConfigHasher creates a new config hasher
func NewConfigHasher(configPath string) *ConfigHasher {
	return &ConfigHasher{
		configPath: configPath,
	}
}

// GetCurrentConfigHash returns cached hash of current config file
// Automatically calls UpdateCurrentConfigHash() on cache miss
func (h *ConfigHasher) GetCurrentConfigHash() (string, error) {
	h.mu.RLock()
	if time.Since(h.currentHashTime) < hashCacheTTL && h.currentHash != "" {
		hash := h.currentHash
		h.mu.RUnlock()
		return hash, nil
	}
	h.mu.RUnlock()

	return h.UpdateCurrentConfigHash()
}

// UpdateCurrentConfigHash recalculates config hash and resets cache
func (h *ConfigHasher) UpdateCurrentConfigHash() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	cfg, err := LoadConfig(h.configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if _, err := cfg.UpgradeConfig(); err != nil {
		return "", err
	}

	hash, err := CalculateHash(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	h.currentHash = hash
	h.currentHashTime = time.Now()

	return hash, nil
}

// GetActiveConfigHash returns hash of config that was active when the session started
func (h *ConfigHasher) GetActiveConfigHash() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.activeHash
}

// SetActiveConfigHash sets the hash of config when the session starts
func (h *ConfigHasher) SetActiveConfigHash(hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.activeHash = hash
}

// MarkActive records the current file hash as the one the session runs with.
func (h *ConfigHasher) MarkActive() (string, error) {
	hash, err := h.UpdateCurrentConfigHash()
	if err != nil {
		return "", err
	}
	h.SetActiveConfigHash(hash)
	return hash, nil
}

// IsStale reports whether a running session uses a configuration older than
// the file on disk. Without an active hash nothing is stale.
func (h *ConfigHasher) IsStale() (bool, error) {
	active := h.GetActiveConfigHash()
	if active == "" {
		return false, nil
	}
	current, err := h.GetCurrentConfigHash()
	if err != nil {
		return false, err
	}
	return current != active, nil
}

// ConfigHashData represents the structure used for hashing
type ConfigHashData struct {
	EngineCommand string          `json:"engine_command"`
	TunName       string          `json:"tun_name"`
	Route         *route.Snapshot `json:"route"`
}

// CalculateHash generates MD5 hash of the parts of config that a session
// depends on. Rule order and list order are significant.
func CalculateHash(config *Config) (string, error) {
	data := &ConfigHashData{Route: config.Route}
	if config.Session != nil {
		data.EngineCommand = config.Session.EngineCommand
		data.TunName = config.Session.TunName
	}

	w := hashing.NewMD5Writer()
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return "", fmt.Errorf("failed to marshal config data: %w", err)
	}
	return w.GetChecksum()
}
