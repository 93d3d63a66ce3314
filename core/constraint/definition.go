package constraint

import (
	"strings"
	"time"
)

// Definition is the plain input New turns into a DatasetConstraint.
// Dimensions and codes are slices so that duplicates can be reported
// instead of silently overwritten, and so document order survives.
type Definition struct {
	DatasetID   string
	Names       map[string]string
	Structure   StructureRef
	GeneratedAt time.Time
	Checksum    string
	Dimensions  []DimensionDefinition
}

// DimensionDefinition lists the permitted codes of one dimension.
type DimensionDefinition struct {
	ID    string
	Codes []CodeDefinition
}

// CodeDefinition is one permitted code with its language->name map.
type CodeDefinition struct {
	Code  string
	Names map[string]string
}

// New validates def and builds an immutable DatasetConstraint.
// Every violation is reported as *MalformedError with the failing field path.
func New(def Definition) (*DatasetConstraint, error) {
	id := strings.TrimSpace(def.DatasetID)
	if id == "" {
		return nil, Malformed("", "dataset_info.id", "dataset id is required")
	}
	if err := validateStructure(id, def.Structure); err != nil {
		return nil, err
	}
	if len(def.Dimensions) == 0 {
		return nil, Malformed(id, "dimensions", "at least one dimension is required")
	}

	c := &DatasetConstraint{
		id:          id,
		names:       NewLabels(def.Names),
		structure:   def.Structure,
		generatedAt: def.GeneratedAt,
		checksum:    def.Checksum,
		dimensions:  make(map[string]*DimensionConstraint, len(def.Dimensions)),
		order:       make([]string, 0, len(def.Dimensions)),
	}

	for _, dd := range def.Dimensions {
		dim, err := newDimension(id, dd)
		if err != nil {
			return nil, err
		}
		if _, dup := c.dimensions[dim.id]; dup {
			return nil, Malformed(id, "dimensions."+dim.id, "duplicate dimension id")
		}
		c.dimensions[dim.id] = dim
		c.order = append(c.order, dim.id)
	}

	return c, nil
}

func validateStructure(datasetID string, s StructureRef) error {
	switch {
	case strings.TrimSpace(s.AgencyID) == "":
		return Malformed(datasetID, "structure_reference.agency_id", "agency id is required")
	case strings.TrimSpace(s.ID) == "":
		return Malformed(datasetID, "structure_reference.id", "structure id is required")
	case strings.TrimSpace(s.Version) == "":
		return Malformed(datasetID, "structure_reference.version", "structure version is required")
	}
	return nil
}

func newDimension(datasetID string, dd DimensionDefinition) (*DimensionConstraint, error) {
	if strings.TrimSpace(dd.ID) == "" {
		return nil, Malformed(datasetID, "dimensions", "dimension id is required")
	}
	path := "dimensions." + dd.ID + ".values"
	if len(dd.Codes) == 0 {
		return nil, Malformed(datasetID, path, "dimension has no codes")
	}

	dim := &DimensionConstraint{
		id:    dd.ID,
		codes: make(map[string]CodeLabel, len(dd.Codes)),
		order: make([]string, 0, len(dd.Codes)),
	}
	for _, cd := range dd.Codes {
		if cd.Code == "" {
			return nil, Malformed(datasetID, path, "empty code")
		}
		codePath := path + "." + cd.Code
		if _, dup := dim.codes[cd.Code]; dup {
			return nil, Malformed(datasetID, codePath, "duplicate code")
		}
		names := NewLabels(cd.Names)
		if names.IsEmpty() {
			return nil, Malformed(datasetID, codePath+".name", "code has no non-empty name")
		}
		dim.codes[cd.Code] = CodeLabel{code: cd.Code, names: names}
		dim.order = append(dim.order, cd.Code)
	}
	return dim, nil
}
