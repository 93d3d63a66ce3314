// Package resolver resolves dimension codes and dataset ids to display names.
//
// Names are looked up with a deterministic fallback: each preferred language
// in order (a regional tag such as it-IT also tries it), then the default
// language (en unless WithDefaultLanguage says otherwise), then the
// lexicographically smallest language the code has a name in. An existing
// code therefore always resolves; errors are reserved for unknown datasets,
// dimensions and codes and match the constraint package sentinels.
//
// A regional tag falls back to its base language before the next preference
// is tried, as in RFC 4647 lookup: with preferences en-GB, it and names in en
// and it, the en name wins. Resolution.FallbackUsed reports such a match.
//
//	r := resolver.New(reg)
//	label, err := r.Resolve("163_156", "ADJUSTMENT", "Y", "fr", "en")
//	// "seasonally adjusted data"
//
// ParseAcceptLanguage converts an HTTP Accept-Language header into the
// ordered preference list.
package resolver
