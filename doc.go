// Package dimreg is a registry of per-dataset dimension constraints: the
// closed set of codes each dimension of a statistical dataset may take,
// with localized display names.
//
// The module is organized as:
//
//   - core/constraint: the immutable constraint model and its errors
//   - core/loader: JSON and YAML constraint documents to constraints
//   - core/registry: concurrent dataset id to constraint index with atomic replacement
//   - core/validator: record validation producing violations
//   - core/resolver: code to display name with language fallback
//   - core/ingest: keeps a registry in sync with a document source
//   - core/api, core/server: HTTP API over the registry
//   - integration/...: document sources on the filesystem, S3, Redis, PostgreSQL and MongoDB
//   - cmd/dimreg: the command line
//
// A minimal in-process setup:
//
//	c, err := loader.LoadFile("constraints_163_156.json")
//	if err != nil {
//		return err
//	}
//	reg := registry.New()
//	if _, err := reg.Publish(c); err != nil {
//		return err
//	}
//	res, err := validator.New(reg).ValidateMap("163_156", map[string]string{"FREQ": "M"})
package dimreg
