// internal/workers/counseling/get-college-cutoff/config.go
package getcollegecutoff

import "time"

// Config holds per-job settings. The result cache TTL comes from the
// counseling section of the service config.
type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
