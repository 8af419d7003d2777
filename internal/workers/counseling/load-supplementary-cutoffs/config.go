// internal/workers/counseling/load-supplementary-cutoffs/config.go
package loadsupplementarycutoffs

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
