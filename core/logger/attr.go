package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Attribute helpers return an empty Attr for zero values, so calls like
// log.Info("msg", logger.Error(err)) need no nil checks. slog drops empty attrs.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// ============================================================================
// Error Handling
// ============================================================================

// Errors groups multiple non-nil errors under the key "errors".
// Uses index-based keys to preserve error order. Returns empty Attr for all nil errors.
func Errors(errs ...error) slog.Attr {
	count := 0
	for _, err := range errs {
		if err != nil {
			count++
		}
	}
	if count == 0 {
		return slog.Attr{}
	}

	as := make([]slog.Attr, 0, count)
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// ============================================================================
// Timing
// ============================================================================

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ============================================================================
// Constraint Domain
// ============================================================================

// Dataset creates an attribute for a dataset id.
func Dataset(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("dataset", id)
}

// Dimension creates an attribute for a dimension id.
func Dimension(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("dimension", id)
}

// Code creates an attribute for a dimension code.
func Code(code string) slog.Attr {
	if code == "" {
		return slog.Attr{}
	}
	return slog.String("code", code)
}

// Structure creates an attribute for a structure reference. Any fmt.Stringer
// works; constraint.StructureRef renders as AGENCY:ID(VERSION).
func Structure(ref fmt.Stringer) slog.Attr {
	if ref == nil {
		return slog.Attr{}
	}
	return slog.String("structure", ref.String())
}

// Source creates an attribute naming the document a constraint came from.
func Source(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("source", name)
}

// CycleID creates an attribute for an ingestion cycle id.
func CycleID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("cycle_id", id)
}

// Revision creates an attribute for a registry revision.
func Revision(rev uint64) slog.Attr {
	if rev == 0 {
		return slog.Attr{}
	}
	return slog.Uint64("revision", rev)
}

// ============================================================================
// HTTP
// ============================================================================

// Method creates an attribute for HTTP methods.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for URL paths.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// StatusCode creates an attribute for HTTP status codes.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// ============================================================================
// Generic Metadata
// ============================================================================

// Component creates an attribute for component names.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Count creates a generic counter attribute.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// Key creates a generic key-value attribute.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}
