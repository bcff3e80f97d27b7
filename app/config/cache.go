package config

import (
	"log/slog"
	"sync"
)

// Cache holds the loaded channel configurations for concurrent readers.
type Cache struct {
	loader *Loader
	cache  map[string]*Config
	mu     sync.RWMutex
}

func NewCache(channelsDir string) *Cache {
	return &Cache{
		loader: NewLoader(channelsDir),
		cache:  make(map[string]*Config),
	}
}

// Run loads every channel configuration from disk into the cache.
func (c *Cache) Run() error {
	configs, err := c.loader.LoadAll()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*Config, len(configs))
	for _, config := range configs {
		c.cache[config.Name] = config
		slog.Debug("Configuration loaded", "channel", config.Name, "enabled", config.Settings.Enabled, "method", config.Transfer.Method)
	}

	return nil
}

func (c *Cache) GetConfig(name string) (*Config, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	config, ok := c.cache[name]
	return config, ok
}

func (c *Cache) GetConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	configsCopy := make(map[string]*Config, len(c.cache))
	for k, v := range c.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (c *Cache) GetEnabledConfigs() map[string]*Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	enabledConfigs := make(map[string]*Config)
	for k, v := range c.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (c *Cache) GetConfigCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}
