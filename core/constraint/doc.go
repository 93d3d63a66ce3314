// Package constraint defines the in-memory model of a dataset's dimension constraints.
//
// A DatasetConstraint describes one published statistical dataset: its identity,
// the structure definition it conforms to, when its constraint document was
// generated, and for each categorical dimension the closed set of permitted codes
// with their localized names.
//
//	def := constraint.Definition{
//		DatasetID: "163_156",
//		Structure: constraint.StructureRef{AgencyID: "IT1", ID: "DCSC_FATTURATOSERV", Version: "1.0"},
//		Dimensions: []constraint.DimensionDefinition{{
//			ID: "ADJUSTMENT",
//			Codes: []constraint.CodeDefinition{
//				{Code: "N", Names: map[string]string{"en": "raw data", "it": "dati grezzi"}},
//				{Code: "Y", Names: map[string]string{"en": "seasonally adjusted data"}},
//			},
//		}},
//	}
//	c, err := constraint.New(def)
//
// # Invariants
//
// New enforces the model invariants and reports the first violation as a
// *MalformedError carrying the dataset id and the dotted field path:
//
//   - the dataset id and all structure reference fields are non-empty
//   - dimension ids are unique, codes are unique within a dimension
//   - every dimension has at least one code
//   - every code has at least one non-blank name
//
// Values built by New are immutable. Accessors return copies of slices and maps,
// so a constraint can be shared between goroutines without locking.
//
// # Errors
//
// The package also owns the error taxonomy shared by the loader, registry,
// validator and resolver: ErrMalformedConstraint for ingestion failures and
// ErrNotFound, ErrUnknownDataset, ErrUnknownDimension, ErrUnknownCode for
// query-time failures. Typed errors unwrap to these sentinels.
package constraint
