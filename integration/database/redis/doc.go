// Package redis provides Redis client initialization, health checking and a
// hash-backed constraint document store.
//
//   - Connect: creates a client with URL validation, retries with doubling
//     intervals and a ping before returning
//   - Healthcheck: readiness check for api.WithReadinessChecks
//   - Store: documents in one hash (field = document name, value = raw
//     document). It implements ingest.Source; Put and Delete maintain it.
//
// Configuration is read from the environment:
//
//	REDIS_URL              (default redis://localhost:6379/0)
//	REDIS_RETRY_ATTEMPTS   (default 3)
//	REDIS_RETRY_INTERVAL   (default 5s)
//	REDIS_CONNECT_TIMEOUT  (default 30s)
//	REDIS_SCAN_BATCH_SIZE  (default 1000)
//	REDIS_DOCUMENTS_KEY    (default dimreg:constraints)
//
// Usage:
//
//	var cfg redis.Config
//	config.MustLoad(&cfg)
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := redis.NewStore(client, cfg)
//	in := ingest.New(store, reg, ingest.WithPrune(true))
//
// Both redis:// and rediss:// (TLS) URLs are accepted. Errors wrap
// ErrFailedToParseRedisConnString, ErrRedisNotReady, ErrEmptyConnectionURL,
// ErrHealthcheckFailed and ErrDocumentNotFound.
package redis
