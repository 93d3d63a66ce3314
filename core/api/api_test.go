package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dimreg/core/api"
	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/loader"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/core/resolver"
	"github.com/dmitrymomot/dimreg/core/validator"
	"github.com/dmitrymomot/dimreg/pkg/broadcast"
)

type fixture struct {
	reg     *registry.Registry
	handler http.Handler
	events  *broadcast.MemoryBroadcaster[api.Event]
}

func setup(t *testing.T, publish bool, opts ...api.Option) fixture {
	t.Helper()
	events := broadcast.NewMemoryBroadcaster[api.Event](16)
	t.Cleanup(func() { _ = events.Close() })
	feed := api.NewChangeFeed(events)

	reg := registry.New(registry.WithObserver(feed))
	if publish {
		c, err := loader.LoadFile("../loader/testdata/constraints_163_156.json")
		require.NoError(t, err)
		_, err = reg.Publish(c)
		require.NoError(t, err)
	}

	opts = append([]api.Option{api.WithChangeFeed(feed)}, opts...)
	a := api.New(reg, validator.New(reg), resolver.New(reg), opts...)
	return fixture{reg: reg, handler: a.Handler(), events: events}
}

func do(t *testing.T, h http.Handler, method, target, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func TestDatasets(t *testing.T) {
	t.Parallel()
	f := setup(t, true)

	t.Run("list", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodGet, "/v1/datasets", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
		body := decode[struct {
			Datasets []string `json:"datasets"`
			Count    int      `json:"count"`
		}](t, rec)
		assert.Equal(t, []string{"163_156"}, body.Datasets)
		assert.Equal(t, 1, body.Count)
	})

	t.Run("summary", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodGet, "/v1/datasets/163_156?lang=it", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct {
			ID        string                  `json:"id"`
			Name      resolver.Resolution     `json:"name"`
			Structure constraint.StructureRef `json:"structure"`
			Revision  uint64                  `json:"revision"`
			Dims      []struct {
				ID    string `json:"id"`
				Codes int    `json:"codes"`
			} `json:"dimensions"`
		}](t, rec)
		assert.Equal(t, "163_156", body.ID)
		assert.Equal(t, "Fatturato dei servizi - dati mensili", body.Name.Label)
		assert.Equal(t, "it", body.Name.Language)
		assert.Equal(t, "DCSC_FATTURATOSERV", body.Structure.ID)
		assert.Equal(t, uint64(1), body.Revision)
		require.Len(t, body.Dims, 4)
		assert.Equal(t, "FREQ", body.Dims[0].ID)
		assert.Equal(t, 1, body.Dims[0].Codes)
		assert.Equal(t, "ADJUSTMENT", body.Dims[1].ID)
		assert.Equal(t, 3, body.Dims[1].Codes)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodGet, "/v1/datasets/999_999", "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decode[errorBody](t, rec)
		assert.Equal(t, "unknown_dataset", body.Code)
		assert.Equal(t, "999_999", body.Details["dataset_id"])
	})
}

func TestDimension(t *testing.T) {
	t.Parallel()
	f := setup(t, true)

	rec := do(t, f.handler, http.MethodGet, "/v1/datasets/163_156/dimensions/ADJUSTMENT", "",
		"Accept-Language", "it-IT,it;q=0.9,en;q=0.5")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		DatasetID string              `json:"dataset_id"`
		Dimension string              `json:"dimension"`
		Codes     []resolver.CodeName `json:"codes"`
	}](t, rec)
	assert.Equal(t, "ADJUSTMENT", body.Dimension)
	require.Len(t, body.Codes, 3)
	for _, c := range body.Codes {
		assert.Equal(t, "it", c.Language)
	}

	rec = do(t, f.handler, http.MethodGet, "/v1/datasets/163_156/dimensions/NOPE", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_dimension", decode[errorBody](t, rec).Code)
}

func TestLabel(t *testing.T) {
	t.Parallel()
	f := setup(t, true)

	tests := []struct {
		name     string
		target   string
		header   []string
		status   int
		label    string
		language string
		fallback bool
		code     string
	}{
		{
			name:     "lang query",
			target:   "/v1/datasets/163_156/dimensions/ADJUSTMENT/codes/N/label?lang=fr,it",
			status:   http.StatusOK,
			label:    "dati grezzi",
			language: "it",
			fallback: true,
		},
		{
			name:     "accept language",
			target:   "/v1/datasets/163_156/dimensions/ADJUSTMENT/codes/Y/label",
			header:   []string{"Accept-Language", "en-GB,en;q=0.8"},
			status:   http.StatusOK,
			label:    "seasonally adjusted data",
			language: "en",
			fallback: true,
		},
		{
			name:     "default language",
			target:   "/v1/datasets/163_156/dimensions/ADJUSTMENT/codes/W/label",
			status:   http.StatusOK,
			label:    "calendar adjusted data",
			language: "en",
		},
		{
			name:   "unknown code",
			target: "/v1/datasets/163_156/dimensions/ADJUSTMENT/codes/X/label",
			status: http.StatusNotFound,
			code:   "unknown_code",
		},
		{
			name:   "unknown dimension",
			target: "/v1/datasets/163_156/dimensions/NOPE/codes/X/label",
			status: http.StatusNotFound,
			code:   "unknown_dimension",
		},
		{
			name:   "unknown dataset",
			target: "/v1/datasets/1/dimensions/ADJUSTMENT/codes/Y/label",
			status: http.StatusNotFound,
			code:   "unknown_dataset",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, f.handler, http.MethodGet, tt.target, "", tt.header...)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, decode[errorBody](t, rec).Code)
				return
			}
			body := decode[resolver.Resolution](t, rec)
			assert.Equal(t, tt.label, body.Label)
			assert.Equal(t, tt.language, body.Language)
			assert.Equal(t, tt.fallback, body.FallbackUsed)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	f := setup(t, true, api.WithMaxBodySize(512))
	const target = "/v1/datasets/163_156/validate"

	t.Run("record", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodPost, target,
			`{"record":[{"dimension":"ADJUSTMENT","code":"Y"},{"dimension":"FREQ","code":"A"}]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[validator.Result](t, rec)
		assert.False(t, res.Valid)
		assert.Equal(t, []validator.Violation{
			{Dimension: "FREQ", Code: "A", Kind: validator.InvalidCode},
		}, res.Violations)
	})

	t.Run("fields", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodPost, target, `{"fields":{"ADJUSTMENT":"N","EDI":"2015M3"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[validator.Result](t, rec)
		assert.True(t, res.Valid)
		assert.Empty(t, res.Violations)
	})

	t.Run("strict reports missing dimensions", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodPost, target+"?strict=true", `{"fields":{"ADJUSTMENT":"N"}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[validator.Result](t, rec)
		assert.False(t, res.Valid)
		assert.Equal(t, []validator.Violation{
			{Dimension: "FREQ", Kind: validator.MissingDimension},
			{Dimension: "TIPO_DATO", Kind: validator.MissingDimension},
			{Dimension: "EDI", Kind: validator.MissingDimension},
		}, res.Violations)
	})

	t.Run("batch", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodPost, target,
			`{"records":[[{"dimension":"FREQ","code":"M"}],[{"dimension":"COLOR","code":"red"}]]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[struct {
			Valid   bool               `json:"valid"`
			Results []validator.Result `json:"results"`
		}](t, rec)
		assert.False(t, body.Valid)
		require.Len(t, body.Results, 2)
		assert.True(t, body.Results[0].Valid)
		assert.Equal(t, validator.UnknownDimension, body.Results[1].Violations[0].Kind)
	})

	t.Run("unknown dataset", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodPost, "/v1/datasets/999/validate", `{"fields":{}}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "unknown_dataset", decode[errorBody](t, rec).Code)
	})

	badRequests := map[string]struct {
		target string
		body   string
		status int
	}{
		"malformed json":      {target, `{"record":`, http.StatusBadRequest},
		"unknown field":       {target, `{"rows":[]}`, http.StatusBadRequest},
		"empty body object":   {target, `{}`, http.StatusBadRequest},
		"two shapes":          {target, `{"record":[],"fields":{}}`, http.StatusBadRequest},
		"invalid strict":      {target + "?strict=maybe", `{"fields":{}}`, http.StatusBadRequest},
		"body over the limit": {target, `{"fields":{"X":"` + strings.Repeat("a", 600) + `"}}`, http.StatusRequestEntityTooLarge},
	}
	for name, tt := range badRequests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, f.handler, http.MethodPost, tt.target, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, decode[errorBody](t, rec).Code)
		})
	}

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, f.handler, http.MethodGet, target, "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "method_not_allowed", decode[errorBody](t, rec).Code)
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		f := setup(t, false)
		rec := do(t, f.handler, http.MethodGet, "/health/live", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})

	t.Run("not ready without datasets", func(t *testing.T) {
		f := setup(t, false)
		rec := do(t, f.handler, http.MethodGet, "/health/ready", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "no dataset published", decode[errorBody](t, rec).Message)
	})

	t.Run("ready", func(t *testing.T) {
		f := setup(t, true, api.WithReadinessChecks(func(context.Context) error { return nil }))
		rec := do(t, f.handler, http.MethodGet, "/health/ready", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "READY", rec.Body.String())
	})

	t.Run("failing dependency", func(t *testing.T) {
		f := setup(t, true, api.WithReadinessChecks(func(context.Context) error {
			return errors.New("redis down")
		}))
		rec := do(t, f.handler, http.MethodGet, "/health/ready", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "service_unavailable", decode[errorBody](t, rec).Code)
	})
}

func TestMetricsAndNotFound(t *testing.T) {
	t.Parallel()
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "dimreg_datasets 1\n")
	})
	f := setup(t, true, api.WithMetrics(metrics))

	rec := do(t, f.handler, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dimreg_datasets")

	rec = do(t, f.handler, http.MethodGet, "/v2/anything", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorBody](t, rec).Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()
	f := setup(t, true)

	rec := do(t, f.handler, http.MethodGet, "/v1/datasets", "")
	generated := rec.Header().Get(api.RequestIDHeader)
	assert.Len(t, generated, 36)

	rec = do(t, f.handler, http.MethodGet, "/v1/datasets", "", api.RequestIDHeader, "trace-42")
	assert.Equal(t, "trace-42", rec.Header().Get(api.RequestIDHeader))

	var seen string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = api.RequestIDFromContext(r.Context())
	})
	f = setup(t, true, api.WithMetrics(h))
	do(t, f.handler, http.MethodGet, "/metrics", "", api.RequestIDHeader, "trace-43")
	assert.Equal(t, "trace-43", seen)
}

func TestEvents(t *testing.T) {
	t.Parallel()
	f := setup(t, false)
	srv := httptest.NewServer(f.handler)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/events?dataset=163_156"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return f.events.Subscribers() == 1 },
		2*time.Second, 10*time.Millisecond)

	other, err := constraint.New(constraint.Definition{
		DatasetID: "other",
		Structure: constraint.StructureRef{AgencyID: "IT1", ID: "DSD_OTHER", Version: "1.0"},
		Dimensions: []constraint.DimensionDefinition{{
			ID:    "FREQ",
			Codes: []constraint.CodeDefinition{{Code: "A", Names: map[string]string{"en": "annual"}}},
		}},
	})
	require.NoError(t, err)
	_, err = f.reg.Publish(other)
	require.NoError(t, err)

	c, err := loader.LoadFile("../loader/testdata/constraints_163_156.json")
	require.NoError(t, err)
	_, err = f.reg.Publish(c)
	require.NoError(t, err)
	// Unchanged publishes are not streamed.
	_, err = f.reg.Publish(c)
	require.NoError(t, err)
	require.True(t, f.reg.Evict("163_156"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev api.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, registry.Inserted, ev.Kind)
	assert.Equal(t, "163_156", ev.DatasetID)
	assert.Nil(t, ev.Previous)
	require.NotNil(t, ev.Current)
	assert.Equal(t, "DCSC_FATTURATOSERV", ev.Current.ID)

	var evicted api.Event
	require.NoError(t, conn.ReadJSON(&evicted))
	assert.Equal(t, registry.Evicted, evicted.Kind)
	assert.Equal(t, "163_156", evicted.DatasetID)
	require.NotNil(t, evicted.Previous)
	assert.Nil(t, evicted.Current)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	require.Eventually(t, func() bool { return f.events.Subscribers() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestChangeFeedDropsStaleChanges(t *testing.T) {
	t.Parallel()
	events := broadcast.NewMemoryBroadcaster[api.Event](16)
	t.Cleanup(func() { _ = events.Close() })
	feed := api.NewChangeFeed(events)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sub := feed.Subscribe(ctx)
	t.Cleanup(func() { _ = sub.Close() })
	msgs := sub.Receive(ctx)

	ref := constraint.StructureRef{AgencyID: "IT1", ID: "DSD_A", Version: "1.0"}
	feed.RegistryChanged(registry.Change{DatasetID: "a", Kind: registry.Replaced, Previous: ref, Current: ref, Revision: 2})
	// Notified late by a slower writer.
	feed.RegistryChanged(registry.Change{DatasetID: "a", Kind: registry.Inserted, Current: ref, Revision: 1})
	// Other datasets keep their own order.
	feed.RegistryChanged(registry.Change{DatasetID: "b", Kind: registry.Inserted, Current: ref, Revision: 1})
	feed.RegistryChanged(registry.Change{DatasetID: "a", Kind: registry.Evicted, Previous: ref, Revision: 3})

	var got []api.Event
	for len(got) < 3 {
		select {
		case msg := <-msgs:
			got = append(got, msg.Data)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d events, want 3", len(got))
		}
	}
	assert.Equal(t, "a", got[0].DatasetID)
	assert.Equal(t, uint64(2), got[0].Revision)
	assert.Equal(t, "b", got[1].DatasetID)
	assert.Equal(t, registry.Evicted, got[2].Kind)
	assert.Equal(t, uint64(3), got[2].Revision)

	select {
	case msg := <-msgs:
		t.Fatalf("unexpected event %+v", msg.Data)
	case <-time.After(50 * time.Millisecond):
	}
}
