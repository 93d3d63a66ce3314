package loader

// Format selects the document syntax.
type Format int

const (
	// FormatAuto treats documents starting with '{' as JSON and anything else as YAML.
	FormatAuto Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// Option configures a single Load call.
type Option func(*options)

type options struct {
	format     Format
	expectedID string
}

// WithFormat forces the document syntax instead of detecting it.
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithExpectedDatasetID rejects documents that describe a different dataset.
// Useful when documents are addressed by dataset id and a misplaced file must
// not overwrite another dataset's constraints.
func WithExpectedDatasetID(id string) Option {
	return func(o *options) {
		o.expectedID = id
	}
}
