// Package redis opens the go-redis client backing authflow.RedisStore.
//
// [Config] is read from the environment (REDIS_URL, REDIS_POOL_SIZE, ...)
// and [Open] pings the server before returning, retrying while it starts up:
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store, err := authflow.NewRedisStore(client)
//
// [Healthcheck] adapts the client to a readiness check.
package redis
