package constraint_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dimreg/core/constraint"
)

func sampleDefinition() constraint.Definition {
	return constraint.Definition{
		DatasetID:   "163_156",
		Names:       map[string]string{"it": "Fatturato dei servizi", "en": "Services turnover"},
		Structure:   constraint.StructureRef{AgencyID: "IT1", ID: "DCSC_FATTURATOSERV", Version: "1.0"},
		GeneratedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		Dimensions: []constraint.DimensionDefinition{
			{
				ID: "ADJUSTMENT",
				Codes: []constraint.CodeDefinition{
					{Code: "N", Names: map[string]string{"en": "raw data", "it": "dati grezzi"}},
					{Code: "W", Names: map[string]string{"en": "calendar adjusted data", "it": "dati corretti per gli effetti di calendario"}},
					{Code: "Y", Names: map[string]string{"en": "seasonally adjusted data", "it": "dati destagionalizzati"}},
				},
			},
			{
				ID: "FREQ",
				Codes: []constraint.CodeDefinition{
					{Code: "M", Names: map[string]string{"en": "monthly", "it": "mensile"}},
				},
			},
		},
	}
}

func TestNew(t *testing.T) {
	t.Run("builds constraint preserving document order", func(t *testing.T) {
		c, err := constraint.New(sampleDefinition())
		require.NoError(t, err)

		assert.Equal(t, "163_156", c.ID())
		assert.Equal(t, []string{"ADJUSTMENT", "FREQ"}, c.Dimensions())
		assert.Equal(t, "IT1:DCSC_FATTURATOSERV(1.0)", c.Structure().String())

		dim, ok := c.Dimension("ADJUSTMENT")
		require.True(t, ok)
		assert.Equal(t, []string{"N", "W", "Y"}, dim.Codes())
		assert.True(t, dim.Has("Y"))
		assert.False(t, dim.Has("X"))
		assert.Equal(t, 3, dim.Len())

		code, ok := dim.Code("Y")
		require.True(t, ok)
		name, _ := code.Names().Get("en")
		assert.Equal(t, "seasonally adjusted data", name)
	})

	t.Run("accessors return copies", func(t *testing.T) {
		c, err := constraint.New(sampleDefinition())
		require.NoError(t, err)

		dims := c.Dimensions()
		dims[0] = "CHANGED"
		assert.Equal(t, "ADJUSTMENT", c.Dimensions()[0])

		names := c.Names().Map()
		names["en"] = "changed"
		got, _ := c.Names().Get("en")
		assert.Equal(t, "Services turnover", got)
	})

	t.Run("rejects empty dataset id", func(t *testing.T) {
		def := sampleDefinition()
		def.DatasetID = "  "
		_, err := constraint.New(def)
		assertMalformed(t, err, "", "dataset_info.id")
	})

	t.Run("rejects missing structure version", func(t *testing.T) {
		def := sampleDefinition()
		def.Structure.Version = ""
		_, err := constraint.New(def)
		assertMalformed(t, err, "163_156", "structure_reference.version")
	})

	t.Run("rejects dimension without codes", func(t *testing.T) {
		def := sampleDefinition()
		def.Dimensions = append(def.Dimensions, constraint.DimensionDefinition{ID: "EDI"})
		_, err := constraint.New(def)
		assertMalformed(t, err, "163_156", "dimensions.EDI.values")
	})

	t.Run("rejects duplicate dimension", func(t *testing.T) {
		def := sampleDefinition()
		def.Dimensions = append(def.Dimensions, def.Dimensions[1])
		_, err := constraint.New(def)
		assertMalformed(t, err, "163_156", "dimensions.FREQ")
	})

	t.Run("rejects duplicate code", func(t *testing.T) {
		def := sampleDefinition()
		def.Dimensions[1].Codes = append(def.Dimensions[1].Codes, def.Dimensions[1].Codes[0])
		_, err := constraint.New(def)
		assertMalformed(t, err, "163_156", "dimensions.FREQ.values.M")
	})

	t.Run("rejects code with only blank names", func(t *testing.T) {
		def := sampleDefinition()
		def.Dimensions[1].Codes[0].Names = map[string]string{"en": " ", "it": ""}
		_, err := constraint.New(def)
		assertMalformed(t, err, "163_156", "dimensions.FREQ.values.M.name")
	})
}

func TestDatasetConstraint_IsStale(t *testing.T) {
	c, err := constraint.New(sampleDefinition())
	require.NoError(t, err)
	generated := c.GeneratedAt()

	assert.False(t, c.IsStale(generated.Add(time.Hour), 2*time.Hour))
	assert.True(t, c.IsStale(generated.Add(3*time.Hour), 2*time.Hour))
	assert.False(t, c.IsStale(generated.Add(3*time.Hour), 0), "non-positive max age disables staleness")

	def := sampleDefinition()
	def.GeneratedAt = time.Time{}
	unknown, err := constraint.New(def)
	require.NoError(t, err)
	assert.False(t, unknown.IsStale(time.Now(), time.Nanosecond))
	assert.Zero(t, unknown.Age(time.Now()))
}

func TestDatasetConstraint_Equal(t *testing.T) {
	a, err := constraint.New(sampleDefinition())
	require.NoError(t, err)
	b, err := constraint.New(sampleDefinition())
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	def := sampleDefinition()
	def.Dimensions[0].Codes[2].Names = map[string]string{"en": "other"}
	c, err := constraint.New(def)
	require.NoError(t, err)
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(nil))
}

func TestErrors(t *testing.T) {
	err := constraint.UnknownCode("163_156", "ADJUSTMENT", "X")
	assert.True(t, errors.Is(err, constraint.ErrUnknownCode))
	assert.False(t, errors.Is(err, constraint.ErrUnknownDimension))
	assert.Equal(t, "unknown code: dataset=163_156 dimension=ADJUSTMENT code=X", err.Error())

	var lookup *constraint.LookupError
	require.True(t, errors.As(constraint.UnknownDataset("x"), &lookup))
	assert.Equal(t, "x", lookup.DatasetID)

	m := constraint.Malformed("163_156", "dimensions.EDI", "dimension has %d codes", 0)
	assert.Equal(t, "malformed constraint (dataset 163_156) at dimensions.EDI: dimension has 0 codes", m.Error())
}

func assertMalformed(t *testing.T, err error, datasetID, path string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, constraint.ErrMalformedConstraint)

	var m *constraint.MalformedError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, datasetID, m.DatasetID)
	assert.Equal(t, path, m.Path)
}
