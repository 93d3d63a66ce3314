// Package loader parses constraint documents into constraint.DatasetConstraint values.
//
// A document is JSON (as written by the constraint generator) or YAML with
// the same shape:
//
//	{
//	  "dataset_info": {
//	    "id": "163_156",
//	    "names": {"it": "...", "en": "..."},
//	    "structure_reference": {"agency_id": "IT1", "id": "DCSC_FATTURATOSERV", "version": "1.0"}
//	  },
//	  "generated_at": "2025-01-15T10:30:45.123456",
//	  "dimensions": {
//	    "ADJUSTMENT": {"id": "ADJUSTMENT", "values": {"Y": {"name": {"en": "seasonally adjusted data"}}}}
//	  }
//	}
//
// Dimension and code order follow the document. Repeated keys at any level
// are rejected rather than overwritten. generated_at without a zone offset
// is read as UTC. The checksum of a loaded constraint is the SHA-256 of the
// raw document bytes, which lets callers skip re-ingesting unchanged files.
//
// Load never touches a registry; publishing is the caller's decision:
//
//	c, err := loader.Load(raw, loader.WithExpectedDatasetID("163_156"))
//	if err != nil {
//		var m *constraint.MalformedError
//		if errors.As(err, &m) {
//			log.Printf("bad document at %s: %s", m.Path, m.Reason)
//		}
//		return err
//	}
//	change, err := reg.Publish(c)
package loader
