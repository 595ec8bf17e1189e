package config

import "time"

// RateLimitConfig tunes the Redis token bucket guarding the credential
// endpoints (login, register, password reset).
type RateLimitConfig struct {
    Enabled        bool          `env:"ENABLED" envDefault:"false"`
    Capacity       int           `env:"CAPACITY" envDefault:"10"`
    RefillTokens   int           `env:"REFILL_TOKENS" envDefault:"1"`
    RefillInterval time.Duration `env:"REFILL_INTERVAL" envDefault:"6s"`
    TTL            time.Duration `env:"TTL" envDefault:"10m"`
    KeyStrategy    string        `env:"KEY_STRATEGY" envDefault:"ip_route"` // ip|route|ip_route
    Prefix         string        `env:"PREFIX" envDefault:"rl"`
}

func (c *RateLimitConfig) normalize() {
    if c.Capacity < 1 { c.Capacity = 1 }
    if c.RefillTokens < 1 { c.RefillTokens = 1 }
    if c.RefillInterval <= 0 { c.RefillInterval = time.Second }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL { c.TTL = minTTL }
    if c.Prefix == "" { c.Prefix = "rl" }
}
