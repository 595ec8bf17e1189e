package config

// Redis backs the "redis" storage backend and the credential rate limiter.
// A failed ping is reported to the caller, which decides whether it is fatal.

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// NewRedisClient dials Redis with the given settings and pings it with a
// short timeout.  The client is closed again when the ping fails.
func NewRedisClient(ctx context.Context, rc RedisConfig) (*redis.Client, error) {
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := client.Ping(pctx).Err(); err != nil {
        _ = client.Close()
        return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
    }
    return client, nil
}
