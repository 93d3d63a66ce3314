// Package api serves the constraint registry over HTTP.
//
// Routes (gorilla/mux):
//
//	GET  /v1/datasets
//	GET  /v1/datasets/{id}
//	GET  /v1/datasets/{id}/dimensions/{dim}
//	GET  /v1/datasets/{id}/dimensions/{dim}/codes/{code}/label
//	POST /v1/datasets/{id}/validate?strict=true
//	GET  /v1/events            (websocket, when a ChangeFeed is configured)
//	GET  /health/live
//	GET  /health/ready
//	GET  /metrics              (when a metrics handler is configured)
//
// Preferred languages come from ?lang=it,en or the Accept-Language header.
// Errors are JSON objects {code, message, details}; unknown datasets,
// dimensions and codes map to 404 with the codes unknown_dataset,
// unknown_dimension and unknown_code.
//
// Every matched route gets an X-Request-ID (an incoming one is reused) and
// one log line with the request id and client IP.
//
// The validate endpoint accepts exactly one of:
//
//	{"record":  [{"dimension": "ADJUSTMENT", "code": "Y"}]}
//	{"fields":  {"ADJUSTMENT": "Y"}}
//	{"records": [[{"dimension": "ADJUSTMENT", "code": "Y"}], ...]}
//
// Wiring:
//
//	feed := api.NewChangeFeed(broadcast.NewMemoryBroadcaster[api.Event](64))
//	reg := registry.New(registry.WithObserver(feed))
//	a := api.New(reg, validator.New(reg), resolver.New(reg),
//		api.WithChangeFeed(feed),
//		api.WithMetrics(m.Handler()),
//		api.WithReadinessChecks(redis.Healthcheck(client)),
//	)
//	srv.Start(ctx, a.Handler())
package api
