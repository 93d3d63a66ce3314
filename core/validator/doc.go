// Package validator checks candidate records against published dimension constraints.
//
// A record maps dimension ids to codes. Each pair is checked against the
// dataset's current registry entry:
//
//	v := validator.New(reg)
//	res, err := v.Validate("163_156", validator.Record{
//		{Dimension: "ADJUSTMENT", Code: "Y"},
//		{Dimension: "FREQ", Code: "Q"},
//	})
//	// err is non-nil only for an unknown dataset (errors.Is(err, validator.ErrUnknownDataset)).
//	// res.Violations: [{FREQ Q invalid_code}]
//
// Dimensions absent from the record are fine unless RequireAllDimensions is
// passed, which reports them as MissingDimension after the record-order
// violations. Violations are values; Result.Err converts an invalid result into
// an error for callers that want one.
package validator
