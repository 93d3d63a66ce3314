package loader

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrymomot/dimreg/core/constraint"
)

// Document field names.
const (
	fieldDatasetInfo = "dataset_info"
	fieldID          = "id"
	fieldNames       = "names"
	fieldStructure   = "structure_reference"
	fieldAgencyID    = "agency_id"
	fieldVersion     = "version"
	fieldGeneratedAt = "generated_at"
	fieldDimensions  = "dimensions"
	fieldValues      = "values"
	fieldName        = "name"
)

// generatedAtLayouts lists accepted generated_at layouts. Zone-less values
// (as written by Python's datetime.isoformat) are read as UTC.
var generatedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Load parses a raw constraint document into a DatasetConstraint.
// It has no side effects. Every failure is a *constraint.MalformedError.
func Load(raw []byte, opts ...Option) (*constraint.DatasetConstraint, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	root, dup, err := decode(raw, o.format)
	if err != nil {
		return nil, constraint.Malformed("", "", "invalid %s document: %v", detect(raw, o.format), err)
	}

	b := &builder{root: root}
	b.datasetID = b.peekDatasetID()
	if dup != nil {
		return nil, constraint.Malformed(b.datasetID, dup.path, "duplicate key")
	}

	def, err := b.definition()
	if err != nil {
		return nil, err
	}
	if o.expectedID != "" && def.DatasetID != o.expectedID {
		return nil, constraint.Malformed(def.DatasetID, fieldDatasetInfo+"."+fieldID,
			"document describes dataset %q, expected %q", def.DatasetID, o.expectedID)
	}

	sum := sha256.Sum256(raw)
	def.Checksum = hex.EncodeToString(sum[:])

	return constraint.New(def)
}

// LoadReader reads r to the end and loads the document.
func LoadReader(r io.Reader, opts ...Option) (*constraint.DatasetConstraint, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read constraint document: %w", err)
	}
	return Load(raw, opts...)
}

// LoadFile reads and loads the document at path. YAML is assumed for .yaml
// and .yml files unless a format option says otherwise.
func LoadFile(path string, opts ...Option) (*constraint.DatasetConstraint, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read constraint document %s: %w", path, err)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext == ".yaml" || ext == ".yml" {
		opts = append([]Option{WithFormat(FormatYAML)}, opts...)
	}
	return Load(raw, opts...)
}

func detect(raw []byte, f Format) Format {
	if f != FormatAuto {
		return f
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

func decode(raw []byte, f Format) (*node, *duplicateKey, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, fmt.Errorf("empty document")
	}
	if detect(raw, f) == FormatJSON {
		return decodeJSON(raw)
	}
	return decodeYAML(raw)
}

// builder walks the decoded tree and produces a constraint.Definition,
// reporting the precise path of the first structural problem.
type builder struct {
	root      *node
	datasetID string
}

func (b *builder) fail(path, reason string, args ...any) error {
	return constraint.Malformed(b.datasetID, path, reason, args...)
}

// peekDatasetID recovers the dataset id, if any, so that errors found later
// (including duplicate keys) can still name the dataset.
func (b *builder) peekDatasetID() string {
	info, ok := b.root.field(fieldDatasetInfo)
	if !ok {
		return ""
	}
	if id, ok := info.field(fieldID); ok && id.isText() {
		return strings.TrimSpace(id.text)
	}
	return ""
}

func (b *builder) definition() (constraint.Definition, error) {
	var def constraint.Definition

	if b.root.kind != kindObject {
		return def, b.fail("", "document root must be an object, got %s", b.root.kind)
	}

	info, err := b.object(b.root, fieldDatasetInfo, fieldDatasetInfo, true)
	if err != nil {
		return def, err
	}
	idPath := fieldDatasetInfo + "." + fieldID
	id, ok := info.field(fieldID)
	if !ok || !id.isText() || strings.TrimSpace(id.text) == "" {
		return def, b.fail(idPath, "dataset id is required")
	}
	def.DatasetID = strings.TrimSpace(id.text)

	if def.Names, err = b.names(info, fieldNames, fieldDatasetInfo+"."+fieldNames); err != nil {
		return def, err
	}
	if def.Structure, err = b.structure(info); err != nil {
		return def, err
	}
	if def.GeneratedAt, err = b.generatedAt(); err != nil {
		return def, err
	}
	if def.Dimensions, err = b.dimensions(); err != nil {
		return def, err
	}
	return def, nil
}

func (b *builder) object(parent *node, key, path string, required bool) (*node, error) {
	v, ok := parent.field(key)
	if !ok || v.kind == kindNull {
		if required {
			return nil, b.fail(path, "field is required")
		}
		return nil, nil
	}
	if v.kind != kindObject {
		return nil, b.fail(path, "expected object, got %s", v.kind)
	}
	return v, nil
}

// names reads a language->name object. Null names are skipped; blank names
// are dropped later by constraint.NewLabels.
func (b *builder) names(parent *node, key, path string) (map[string]string, error) {
	obj, err := b.object(parent, key, path, false)
	if err != nil || obj == nil {
		return nil, err
	}
	out := make(map[string]string, len(obj.keys))
	for _, lang := range obj.keys {
		v := obj.fields[lang]
		switch {
		case v.kind == kindNull:
			continue
		case v.isText():
			out[lang] = v.text
		default:
			return nil, b.fail(path+"."+lang, "expected string, got %s", v.kind)
		}
	}
	return out, nil
}

// structure reads the structure reference from dataset_info (generator
// output) or from the document root. If both are present they must agree.
func (b *builder) structure(info *node) (constraint.StructureRef, error) {
	nestedPath := fieldDatasetInfo + "." + fieldStructure
	nested, err := b.object(info, fieldStructure, nestedPath, false)
	if err != nil {
		return constraint.StructureRef{}, err
	}
	top, err := b.object(b.root, fieldStructure, fieldStructure, false)
	if err != nil {
		return constraint.StructureRef{}, err
	}

	switch {
	case nested == nil && top == nil:
		return constraint.StructureRef{}, b.fail(fieldStructure, "structure reference is required")
	case nested != nil && top != nil:
		a, err := b.structureFields(nested, nestedPath)
		if err != nil {
			return a, err
		}
		c, err := b.structureFields(top, fieldStructure)
		if err != nil {
			return c, err
		}
		if a != c {
			return a, b.fail(fieldStructure, "conflicts with %s: %s != %s", nestedPath, c, a)
		}
		return a, nil
	case nested != nil:
		return b.structureFields(nested, nestedPath)
	default:
		return b.structureFields(top, fieldStructure)
	}
}

func (b *builder) structureFields(obj *node, path string) (constraint.StructureRef, error) {
	var ref constraint.StructureRef
	for _, f := range []struct {
		key string
		dst *string
	}{
		{fieldAgencyID, &ref.AgencyID},
		{fieldID, &ref.ID},
		{fieldVersion, &ref.Version},
	} {
		v, ok := obj.field(f.key)
		if !ok || !v.isText() || strings.TrimSpace(v.text) == "" {
			return ref, b.fail(path+"."+f.key, "field is required")
		}
		*f.dst = v.text
	}
	return ref, nil
}

func (b *builder) generatedAt() (time.Time, error) {
	v, ok := b.root.field(fieldGeneratedAt)
	if !ok || v.kind == kindNull {
		return time.Time{}, nil
	}
	if v.kind != kindString {
		return time.Time{}, b.fail(fieldGeneratedAt, "expected ISO-8601 timestamp, got %s", v.kind)
	}
	for _, layout := range generatedAtLayouts {
		if t, err := time.ParseInLocation(layout, strings.TrimSpace(v.text), time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, b.fail(fieldGeneratedAt, "invalid ISO-8601 timestamp %q", v.text)
}

func (b *builder) dimensions() ([]constraint.DimensionDefinition, error) {
	dims, err := b.object(b.root, fieldDimensions, fieldDimensions, true)
	if err != nil {
		return nil, err
	}
	if len(dims.keys) == 0 {
		return nil, b.fail(fieldDimensions, "at least one dimension is required")
	}

	out := make([]constraint.DimensionDefinition, 0, len(dims.keys))
	for _, dimID := range dims.keys {
		path := fieldDimensions + "." + dimID
		if strings.TrimSpace(dimID) == "" {
			return nil, b.fail(path, "dimension id is required")
		}
		dim, err := b.object(dims, dimID, path, true)
		if err != nil {
			return nil, err
		}
		if inner, ok := dim.field(fieldID); ok && inner.kind != kindNull {
			if !inner.isText() || inner.text != dimID {
				return nil, b.fail(path+"."+fieldID, "dimension id %q does not match its key", inner.text)
			}
		}

		values, err := b.object(dim, fieldValues, path+"."+fieldValues, true)
		if err != nil {
			return nil, err
		}
		if len(values.keys) == 0 {
			return nil, b.fail(path+"."+fieldValues, "dimension has no codes")
		}

		dd := constraint.DimensionDefinition{ID: dimID, Codes: make([]constraint.CodeDefinition, 0, len(values.keys))}
		for _, code := range values.keys {
			codePath := path + "." + fieldValues + "." + code
			entry, err := b.object(values, code, codePath, true)
			if err != nil {
				return nil, err
			}
			names, err := b.names(entry, fieldName, codePath+"."+fieldName)
			if err != nil {
				return nil, err
			}
			dd.Codes = append(dd.Codes, constraint.CodeDefinition{Code: code, Names: names})
		}
		out = append(out, dd)
	}
	return out, nil
}
