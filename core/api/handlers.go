package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/dmitrymomot/dimreg/core/constraint"
	"github.com/dmitrymomot/dimreg/core/resolver"
	"github.com/dmitrymomot/dimreg/core/validator"
)

type datasetList struct {
	Datasets []string `json:"datasets"`
	Count    int      `json:"count"`
}

type datasetSummary struct {
	ID          string                  `json:"id"`
	Name        resolver.Resolution     `json:"name"`
	Names       map[string]string       `json:"names,omitempty"`
	Structure   constraint.StructureRef `json:"structure"`
	GeneratedAt time.Time               `json:"generated_at"`
	Checksum    string                  `json:"checksum,omitempty"`
	Revision    uint64                  `json:"revision"`
	PublishedAt time.Time               `json:"published_at"`
	Dimensions  []dimensionSummary      `json:"dimensions"`
}

type dimensionSummary struct {
	ID    string `json:"id"`
	Codes int    `json:"codes"`
}

type dimensionCodes struct {
	DatasetID string              `json:"dataset_id"`
	Dimension string              `json:"dimension"`
	Codes     []resolver.CodeName `json:"codes"`
}

type codeLabel struct {
	DatasetID string `json:"dataset_id"`
	Dimension string `json:"dimension"`
	Code      string `json:"code"`
	resolver.Resolution
}

// validateRequest carries exactly one of Record, Fields or Records.
type validateRequest struct {
	Record  validator.Record   `json:"record,omitempty"`
	Fields  map[string]string  `json:"fields,omitempty"`
	Records []validator.Record `json:"records,omitempty"`
}

type batchResponse struct {
	DatasetID string             `json:"dataset_id"`
	Valid     bool               `json:"valid"`
	Results   []validator.Result `json:"results"`
}

func (a *API) listDatasets(w http.ResponseWriter, _ *http.Request) error {
	ids := a.registry.List()
	writeJSON(w, http.StatusOK, datasetList{Datasets: ids, Count: len(ids)})
	return nil
}

func (a *API) getDataset(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	e, err := a.registry.Lookup(id)
	if err != nil {
		return err
	}
	name, err := a.resolver.DatasetName(id, preferredLanguages(r)...)
	if err != nil {
		return err
	}
	c := e.Constraint()
	dims := c.Dimensions()
	summary := datasetSummary{
		ID:          id,
		Name:        name,
		Names:       c.Names().Map(),
		Structure:   c.Structure(),
		GeneratedAt: c.GeneratedAt(),
		Checksum:    c.Checksum(),
		Revision:    e.Revision(),
		PublishedAt: e.PublishedAt(),
		Dimensions:  make([]dimensionSummary, 0, len(dims)),
	}
	for _, dimID := range dims {
		d, _ := c.Dimension(dimID)
		summary.Dimensions = append(summary.Dimensions, dimensionSummary{ID: dimID, Codes: d.Len()})
	}
	writeJSON(w, http.StatusOK, summary)
	return nil
}

func (a *API) getDimension(w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)
	codes, err := a.resolver.Codes(vars["id"], vars["dim"], preferredLanguages(r)...)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, dimensionCodes{
		DatasetID: vars["id"],
		Dimension: vars["dim"],
		Codes:     codes,
	})
	return nil
}

func (a *API) getLabel(w http.ResponseWriter, r *http.Request) error {
	vars := mux.Vars(r)
	res, err := a.resolver.ResolveDetailed(vars["id"], vars["dim"], vars["code"], preferredLanguages(r)...)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, codeLabel{
		DatasetID:  vars["id"],
		Dimension:  vars["dim"],
		Code:       vars["code"],
		Resolution: res,
	})
	return nil
}

func (a *API) validate(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]

	strict := false
	if raw := r.URL.Query().Get("strict"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return ErrBadRequest.WithMessage(fmt.Sprintf("invalid strict value %q", raw))
		}
		strict = v
	}

	req, err := a.decodeValidateRequest(w, r)
	if err != nil {
		return err
	}

	if req.Records != nil {
		results, err := a.validator.ValidateBatch(id, req.Records, validator.Strict(strict))
		if err != nil {
			return err
		}
		resp := batchResponse{DatasetID: id, Valid: true, Results: results}
		for _, res := range results {
			if !res.Valid {
				resp.Valid = false
				break
			}
		}
		writeJSON(w, http.StatusOK, resp)
		return nil
	}

	var res validator.Result
	if req.Fields != nil {
		res, err = a.validator.ValidateMap(id, req.Fields, validator.Strict(strict))
	} else {
		res, err = a.validator.Validate(id, req.Record, validator.Strict(strict))
	}
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, res)
	return nil
}

func (a *API) decodeValidateRequest(w http.ResponseWriter, r *http.Request) (validateRequest, error) {
	var req validateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return req, HTTPError{
				Status:  http.StatusRequestEntityTooLarge,
				Code:    "request_too_large",
				Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
			}
		}
		return req, ErrBadRequest.WithMessage("invalid request body").WithError(err)
	}

	given := 0
	for _, set := range []bool{req.Record != nil, req.Fields != nil, req.Records != nil} {
		if set {
			given++
		}
	}
	switch given {
	case 0:
		return req, ErrBadRequest.WithMessage("one of record, fields or records is required")
	case 1:
		return req, nil
	default:
		return req, ErrBadRequest.WithMessage("record, fields and records are mutually exclusive")
	}
}

// preferredLanguages reads ?lang=it,en and falls back to Accept-Language.
func preferredLanguages(r *http.Request) []string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return resolver.ParseLanguageList(lang)
	}
	return resolver.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
}
