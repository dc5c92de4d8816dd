// Package redis wraps go-redis with a retrying Connect, a prefixed key-value
// Storage and a ping Healthcheck.
//
// It backs the development-only refresh secret store (see
// pkg/session/redisstore). Config is read from DEV_REDIS_* variables:
//
//	cfg := redis.DefaultConfig()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := redis.NewStorage(client, cfg.KeyPrefix)
//
// Errors wrap the sentinels in errors.go with errors.Join.
package redis
