package ingest

import (
	"context"
	"path"
	"regexp"
)

// Source lists and fetches raw constraint documents. Names are opaque to the
// ingester; they only need to be stable between List and Fetch.
type Source interface {
	List(ctx context.Context) ([]string, error)
	Fetch(ctx context.Context, name string) ([]byte, error)
}

var constraintsFileRe = regexp.MustCompile(`^constraints_(.+)\.(?:json|ya?ml)$`)

// DatasetIDFromName extracts the dataset id from names such as
// "constraints_163_156.json" or "raw/constraints_163_156.yaml".
func DatasetIDFromName(name string) (string, bool) {
	m := constraintsFileRe.FindStringSubmatch(path.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}
