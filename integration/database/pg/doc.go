// Package pg stores constraint documents in PostgreSQL.
//
//   - Connect: pgxpool with retry and ping
//   - Migrate: applies the embedded goose migration creating constraint_documents
//   - Healthcheck: readiness check for api.WithReadinessChecks
//   - Store: implements ingest.Source over the table; Put upserts, Delete removes
//   - WithTx / TxFromContext: run Store calls inside a caller's transaction
//
// Configuration (environment):
//
//	PG_CONN_URL            (required)
//	PG_MAX_OPEN_CONNS      (default 10)
//	PG_MAX_IDLE_CONNS      (default 5)
//	PG_HEALTHCHECK_PERIOD  (default 1m)
//	PG_MAX_CONN_IDLE_TIME  (default 10m)
//	PG_MAX_CONN_LIFETIME   (default 30m)
//	PG_RETRY_ATTEMPTS      (default 3)
//	PG_RETRY_INTERVAL      (default 5s)
//	PG_MIGRATIONS_TABLE    (default schema_migrations)
//
// Usage:
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	if err := pg.Migrate(ctx, pool, cfg); err != nil {
//		return err
//	}
//	in := ingest.New(pg.NewStore(pool), reg)
//
// Publishing a batch of documents atomically:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx)
//	txCtx := pg.WithTx(ctx, tx)
//	for name, body := range docs {
//		if err := store.Put(txCtx, name, body); err != nil {
//			return err
//		}
//	}
//	return tx.Commit(ctx)
package pg
