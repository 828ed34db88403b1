package tones

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yml
var defaultProfiles []byte

// Cache holds the fixed set of supported narration tones. Built-in profiles
// are always loaded; a configured directory may override individual tones
// (one <tone>.yml file per profile) but cannot add new ones; the tone set
// is part of the episode contract.
type Cache struct {
	tonesDir string
	cache    map[string]*Profile
	mu       sync.RWMutex
}

func NewCache(tonesDir string) *Cache {
	return &Cache{
		tonesDir: tonesDir,
		cache:    make(map[string]*Profile),
	}
}

func (c *Cache) Run() error {
	var file profileFile
	if err := yaml.Unmarshal(defaultProfiles, &file); err != nil {
		return fmt.Errorf("failed to parse built-in tone profiles: %w", err)
	}

	c.mu.Lock()
	for name, profile := range file.Tones {
		p := profile
		p.Name = name
		setDefaults(&p)
		c.cache[name] = &p
	}
	c.mu.Unlock()

	if c.tonesDir == "" {
		return nil
	}
	if _, err := os.Stat(c.tonesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.tonesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find tone profile files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")
		if err := c.loadOverride(name, file); err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Tone profile override loaded", "tone", name)
	}

	return nil
}

func (c *Cache) loadOverride(name, path string) error {
	c.mu.RLock()
	_, known := c.cache[name]
	c.mu.RUnlock()
	if !known {
		return fmt.Errorf("unknown tone %q", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	profile.Name = name
	setDefaults(&profile)

	if profile.Instructions == "" {
		return fmt.Errorf("tone %q has no instructions", name)
	}

	c.mu.Lock()
	c.cache[name] = &profile
	c.mu.Unlock()

	return nil
}

func (c *Cache) Get(name string) (*Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	profile, ok := c.cache[name]
	if !ok {
		return nil, fmt.Errorf("unsupported tone %q", name)
	}
	return profile, nil
}

func (c *Cache) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.cache[name]
	return ok
}

// Names returns the supported tone names in sorted order.
func (c *Cache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.cache))
	for name := range c.cache {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func setDefaults(profile *Profile) {
	if profile.Voice == "" {
		profile.Voice = "alloy"
	}
	if profile.SpeakingRate == 0 {
		profile.SpeakingRate = 1.0
	}
}
