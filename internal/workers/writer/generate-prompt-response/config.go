// internal/workers/writer/generate-prompt-response/config.go
package generatepromptresponse

import "time"

type Config struct {
	Timeout     time.Duration
	Concurrency int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     120 * time.Second,
		Concurrency: 4,
	}
}
