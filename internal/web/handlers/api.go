// Package handlers implements the JSON API of the address service.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ukaddresskit/ukaddresskit/internal/locality"
	"github.com/ukaddresskit/ukaddresskit/internal/parser"
	"github.com/ukaddresskit/ukaddresskit/internal/postcode"
	"github.com/ukaddresskit/ukaddresskit/internal/reconcile"
)

// APIHandler serves the parse, postcode and locality endpoints.
type APIHandler struct {
	Parser     *parser.Parser
	Postcodes  *postcode.Directory
	Localities *locality.Index

	// BatchWorkers and BatchLimit bound the batch endpoint.
	BatchWorkers int
	BatchLimit   int

	// ParseCounter counts parses by outcome; nil disables counting.
	ParseCounter *prometheus.CounterVec
}

type parseRequest struct {
	Address       string `json:"address"`
	Probabilities bool   `json:"probabilities"`
}

type parseResponse struct {
	Address       reconcile.StructuredAddress `json:"address"`
	Probabilities *parser.Probabilities       `json:"probabilities,omitempty"`
}

// Parse structures one address.
func (h *APIHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	addr, err := h.Parser.Structured(req.Address)
	if err != nil {
		h.countParse("error")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := parseResponse{Address: addr}
	if req.Probabilities {
		probs, err := h.Parser.ParseWithProbabilities(req.Address)
		if err != nil {
			h.countParse("error")
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		resp.Probabilities = probs
	}
	h.countParse("ok")
	writeJSON(w, http.StatusOK, resp)
}

type batchRequest struct {
	Addresses []string `json:"addresses"`
}

type batchResponse struct {
	Results []parser.BatchResult `json:"results"`
}

// ParseBatch structures many addresses in one request. Rows fail
// independently; a bad address shows up in its result, not as a request
// error.
func (h *APIHandler) ParseBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Addresses) == 0 {
		writeError(w, http.StatusBadRequest, "addresses is required")
		return
	}
	if h.BatchLimit > 0 && len(req.Addresses) > h.BatchLimit {
		writeError(w, http.StatusRequestEntityTooLarge, "too many addresses in one batch")
		return
	}

	results, err := h.Parser.StructuredBatch(r.Context(), req.Addresses, h.BatchWorkers)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, res := range results {
		if res.Err != "" {
			h.countParse("error")
		} else {
			h.countParse("ok")
		}
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

type postcodeResponse struct {
	Postcode    string             `json:"postcode"`
	Outcode     string             `json:"outcode"`
	PostTown    string             `json:"post_town,omitempty"`
	County      string             `json:"county,omitempty"`
	Locality    string             `json:"locality,omitempty"`
	Streets     []string           `json:"streets,omitempty"`
	PropertyMix map[string]float64 `json:"property_mix,omitempty"`
}

// Postcode looks up everything known about one postcode. The postcode
// must be well formed; lookup misses leave their fields empty rather
// than failing the request.
func (h *APIHandler) Postcode(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	normalized, err := postcode.Normalize(code)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	outcode, err := postcode.ExtractOutcode(normalized)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := postcodeResponse{Postcode: normalized, Outcode: outcode}
	if town, err := h.Postcodes.PostTown(normalized); err == nil {
		resp.PostTown = town
	}
	if county, err := h.Postcodes.County(normalized); err == nil {
		resp.County = county
	}
	if loc, err := h.Postcodes.Locality(normalized); err == nil {
		resp.Locality = loc
	}
	if streets, err := h.Postcodes.Streets(normalized); err == nil {
		resp.Streets = streets
	}
	if mix, err := h.Postcodes.PropertyMix(normalized); err == nil {
		resp.PropertyMix = mix
	}
	writeJSON(w, http.StatusOK, resp)
}

type localityResponse struct {
	Locality string   `json:"locality"`
	Towns    []string `json:"towns"`
}

// Locality resolves a locality name to its town candidates under the
// policy named by the policy query parameter (default most_common).
func (h *APIHandler) Locality(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	policy := locality.Policy(r.URL.Query().Get("policy"))
	if policy == "" {
		policy = locality.PolicyMostCommon
	}

	towns, err := h.Localities.Resolve(name, policy)
	if err != nil {
		var ambiguous *locality.AmbiguityError
		switch {
		case errors.Is(err, locality.ErrNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.As(err, &ambiguous):
			writeJSON(w, http.StatusConflict, map[string]interface{}{
				"error":      "ambiguous locality",
				"candidates": ambiguous.Towns,
			})
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, localityResponse{Locality: name, Towns: towns})
}

// Health reports service liveness.
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) countParse(outcome string) {
	if h.ParseCounter != nil {
		h.ParseCounter.WithLabelValues(outcome).Inc()
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
