// Package ingest moves constraint documents from a Source into the registry.
//
// A Source lists document names and fetches their bytes; adapters exist for a
// local directory, S3, Redis, PostgreSQL and MongoDB. Each Sync is one cycle
// tagged with a UUID:
//
//	in := ingest.New(src, reg,
//		ingest.WithLogger(log),
//		ingest.WithConcurrency(8),
//		ingest.WithPrune(true),
//		ingest.WithExpectedDatasetID(ingest.DatasetIDFromName),
//	)
//	rep, err := in.Sync(ctx)
//
// Documents are fetched and loaded in parallel. A malformed or unreadable
// document is listed in Report.Failures and leaves the dataset's published
// constraint untouched. Documents whose bytes did not change since the last
// cycle are not parsed again. Cycles running longer than WithWarnAfter log a
// warning.
//
// Start repeats Sync on an interval and Run adapts it to errgroup:
//
//	g.Go(in.Run(ctx, 5*time.Minute))
package ingest
