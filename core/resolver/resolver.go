package resolver

import (
	"log/slog"
	"strings"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
)

// Lookuper resolves a dataset id to its current registry entry.
// *registry.Registry implements it.
type Lookuper interface {
	Lookup(datasetID string) (*registry.Entry, error)
}

// Resolution describes which name was picked for a request.
type Resolution struct {
	Label    string `json:"label"`
	Language string `json:"language"`
	// Requested is the first preferred language, or the default language
	// when no preference was given.
	Requested    string `json:"requested"`
	FallbackUsed bool   `json:"fallback_used"`
}

// CodeName is a code with its resolved name.
type CodeName struct {
	Code string `json:"code"`
	Resolution
}

// Resolver turns codes into display names using a fixed language fallback:
// preferred languages in order, then the default language, then the
// lexicographically smallest language the code has a name in.
type Resolver struct {
	lookup      Lookuper
	defaultLang string
	logger      *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDefaultLanguage overrides the fallback language. Blank values are ignored.
func WithDefaultLanguage(lang string) Option {
	return func(r *Resolver) {
		if lang = strings.TrimSpace(lang); lang != "" {
			r.defaultLang = lang
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver reading from lookup.
func New(lookup Lookuper, opts ...Option) *Resolver {
	r := &Resolver{
		lookup:      lookup,
		defaultLang: constraint.DefaultLanguage,
		logger:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(logger.Component("resolver"))
	return r
}

// DefaultLanguage returns the configured fallback language.
func (r *Resolver) DefaultLanguage() string { return r.defaultLang }

// Resolve returns the display name of a code. Errors distinguish an unknown
// dataset, dimension and code; an existing code always resolves.
func (r *Resolver) Resolve(datasetID, dimensionID, code string, preferred ...string) (string, error) {
	res, err := r.ResolveDetailed(datasetID, dimensionID, code, preferred...)
	if err != nil {
		return "", err
	}
	return res.Label, nil
}

// ResolveDetailed is Resolve with information about the language used.
func (r *Resolver) ResolveDetailed(datasetID, dimensionID, code string, preferred ...string) (Resolution, error) {
	e, err := r.lookup.Lookup(datasetID)
	if err != nil {
		return Resolution{}, err
	}
	label, err := e.Label(dimensionID, code)
	if err != nil {
		return Resolution{}, err
	}
	res, _ := r.pick(label.Names(), preferred)
	if res.FallbackUsed {
		r.logger.Debug("label fallback",
			logger.Dataset(datasetID),
			logger.Dimension(dimensionID),
			logger.Code(code),
			slog.String("requested", res.Requested),
			slog.String("language", res.Language),
		)
	}
	return res, nil
}

// DatasetName resolves the dataset display name with the same policy.
// Datasets without names resolve to their id.
func (r *Resolver) DatasetName(datasetID string, preferred ...string) (Resolution, error) {
	e, err := r.lookup.Lookup(datasetID)
	if err != nil {
		return Resolution{}, err
	}
	res, ok := r.pick(e.Constraint().Names(), preferred)
	if !ok {
		res.Label = datasetID
		res.FallbackUsed = true
	}
	return res, nil
}

// Codes resolves every code of a dimension, in document order.
func (r *Resolver) Codes(datasetID, dimensionID string, preferred ...string) ([]CodeName, error) {
	e, err := r.lookup.Lookup(datasetID)
	if err != nil {
		return nil, err
	}
	dim, ok := e.Constraint().Dimension(dimensionID)
	if !ok {
		return nil, constraint.UnknownDimension(datasetID, dimensionID)
	}
	codes := dim.Codes()
	out := make([]CodeName, 0, len(codes))
	for _, code := range codes {
		label, _ := dim.Code(code)
		res, _ := r.pick(label.Names(), preferred)
		out = append(out, CodeName{Code: code, Resolution: res})
	}
	return out, nil
}

func (r *Resolver) pick(names constraint.Labels, preferred []string) (Resolution, bool) {
	preferred = normalize(preferred)
	requested := r.defaultLang
	if len(preferred) > 0 {
		requested = preferred[0]
	}
	name, lang, ok := names.Resolve(preferred, r.defaultLang)
	return Resolution{
		Label:        name,
		Language:     lang,
		Requested:    requested,
		FallbackUsed: lang != requested,
	}, ok
}

// normalize drops blank entries and lowercases the primary subtag, which is
// how names are keyed in constraint documents.
func normalize(preferred []string) []string {
	out := make([]string, 0, len(preferred))
	for _, p := range preferred {
		p = strings.TrimSpace(p)
		if p == "" || p == "*" {
			continue
		}
		if i := strings.IndexAny(p, "-_"); i > 0 {
			p = strings.ToLower(p[:i]) + p[i:]
		} else {
			p = strings.ToLower(p)
		}
		out = append(out, p)
	}
	return out
}
