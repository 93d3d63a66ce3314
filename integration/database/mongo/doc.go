// Package mongo stores constraint documents in MongoDB.
//
// New connects with retries and verifies the connection with a ping, which
// absorbs the slow first handshake of MongoDB Atlas clusters. Store keeps
// documents as {name, body, updated_at} records and implements ingest.Source.
//
//	var cfg mongo.Config
//	config.MustLoad(&cfg)
//	client, err := mongo.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Disconnect(context.Background())
//
//	store := mongo.NewStore(client, cfg)
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
//	in := ingest.New(store, reg)
//
// Configuration (environment):
//
//	MONGODB_URL                 (required)
//	MONGODB_DATABASE            (default: dimreg)
//	MONGODB_COLLECTION          (default: constraint_documents)
//	MONGODB_CONNECT_TIMEOUT     (default: 10s)
//	MONGODB_MAX_POOL_SIZE       (default: 100)
//	MONGODB_MIN_POOL_SIZE       (default: 1)
//	MONGODB_MAX_CONN_IDLE_TIME  (default: 300s)
//	MONGODB_RETRY_WRITES        (default: true)
//	MONGODB_RETRY_READS         (default: true)
//	MONGODB_RETRY_ATTEMPTS      (default: 3)
//	MONGODB_RETRY_INTERVAL      (default: 5s)
//
// Errors: ErrFailedToConnectToMongo when all attempts fail,
// ErrHealthcheckFailed when a ping fails, ErrDocumentNotFound from Fetch.
package mongo
