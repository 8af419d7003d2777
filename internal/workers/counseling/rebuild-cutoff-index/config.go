// internal/workers/counseling/rebuild-cutoff-index/config.go
package rebuildcutoffindex

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 2 * time.Minute,
	}
}
