package config

import (
	"errors"
	"sync"

	"github.com/maksimkurb/keen-route/src/internal/log"
	"github.com/maksimkurb/keen-route/src/internal/route"
)

// FileStore keeps the routing configuration in the [route] section of the
// configuration file. Other sections are preserved on save.
type FileStore struct {
	path   string
	hasher *ConfigHasher

	mu sync.Mutex
}

// NewFileStore creates a store backed by the configuration file at path.
// hasher may be nil; when set, its current hash is refreshed after every save.
func NewFileStore(path string, hasher *ConfigHasher) *FileStore {
	return &FileStore{path: path, hasher: hasher}
}

// Path returns the configuration file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the routing configuration. A missing file yields the defaults.
func (s *FileStore) Load() (*route.Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadFile()
	if err != nil {
		return nil, err
	}
	return cfg.RouteConfig()
}

// Save writes rc into the [route] section.
func (s *FileStore) Save(rc *route.Config) error {
	if err := rc.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadFile()
	if err != nil {
		return err
	}

	cfg.SetRouteConfig(rc)
	if err := cfg.WriteConfig(); err != nil {
		return err
	}

	if s.hasher != nil {
		if _, err := s.hasher.UpdateCurrentConfigHash(); err != nil {
			log.Warnf("Failed to update configuration hash: %v", err)
		}
	}
	return nil
}

func (s *FileStore) loadFile() (*Config, error) {
	cfg, err := LoadConfig(s.path)
	if errors.Is(err, ErrConfigNotFound) {
		log.Debugf("Configuration file %s does not exist yet, using defaults", s.path)
		return NewDefaultConfig(s.path)
	}
	if err != nil {
		return nil, err
	}
	if _, err := cfg.UpgradeConfig(); err != nil {
		return nil, err
	}
	return cfg, nil
}
