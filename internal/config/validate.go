package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got %d)", c.Server.Port)
	}

	base := strings.TrimSpace(c.Store.BaseURL)
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("store.base_url must be an absolute URL (got %q)", c.Store.BaseURL)
	}
	c.Store.BaseURL = strings.TrimRight(base, "/")

	if c.Store.MeaningsLimit <= 0 {
		return fmt.Errorf("store.meanings_limit must be > 0 (got %d)", c.Store.MeaningsLimit)
	}

	if c.AI.MaxTokens <= 0 {
		return fmt.Errorf("ai.max_tokens must be > 0 (got %d)", c.AI.MaxTokens)
	}

	if c.Index.CacheSize <= 0 {
		return fmt.Errorf("index.cache_size must be > 0 (got %d)", c.Index.CacheSize)
	}

	return nil
}
