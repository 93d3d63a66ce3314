package validator

import (
	"maps"
	"slices"
)

// Field is one dimension/code pair of a record.
type Field struct {
	Dimension string `json:"dimension"`
	Code      string `json:"code"`
}

// Record is a candidate data cell key: dimension id -> code, in caller order.
// Violations are reported in this order.
type Record []Field

// RecordFromMap converts a map into a Record with dimensions sorted
// lexicographically, so results do not depend on map iteration order.
func RecordFromMap(m map[string]string) Record {
	r := make(Record, 0, len(m))
	for _, dim := range slices.Sorted(maps.Keys(m)) {
		r = append(r, Field{Dimension: dim, Code: m[dim]})
	}
	return r
}

// Map returns the record as a map. For repeated dimensions the first code wins.
func (r Record) Map() map[string]string {
	m := make(map[string]string, len(r))
	for _, f := range r {
		if _, ok := m[f.Dimension]; !ok {
			m[f.Dimension] = f.Code
		}
	}
	return m
}
