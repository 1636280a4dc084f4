package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/ukaddresskit/ukaddresskit/internal/locality"
	"github.com/ukaddresskit/ukaddresskit/internal/parser"
	"github.com/ukaddresskit/ukaddresskit/internal/postcode"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
)

// stubTagger labels tokens from a fixed lookup, defaulting to
// StreetName.
type stubTagger struct {
	labels map[string]string
}

func (s *stubTagger) Tag(seq tagger.Sequence) ([]string, error) {
	out := make([]string, seq.Len())
	for i, tok := range seq.Tokens {
		if label, ok := s.labels[tok]; ok {
			out[i] = label
		} else {
			out[i] = tagger.StreetName
		}
	}
	return out, nil
}

func (s *stubTagger) Marginal(seq tagger.Sequence, label string, pos int) (float64, error) {
	return 0.9, nil
}

func (s *stubTagger) Probability(seq tagger.Sequence, labels []string) (float64, error) {
	return 0.8, nil
}

func testTables(t *testing.T) *refdata.Tables {
	t.Helper()
	tables, err := refdata.Parse(refdata.Source{
		Counties: strings.NewReader("county\nLANCASHIRE\n"),
		OutcodeTowns: strings.NewReader(
			"postcode,town\nBL8,BURY\nSW1A,LONDON\n"),
		OutcodeCounties: strings.NewReader(
			"outcode,county\nBL8,GREATER MANCHESTER\n"),
		PostcodeLocalities: strings.NewReader(
			"postcode,locality\nSW1A 1AA,WESTMINSTER\n"),
		PostcodeStreets: strings.NewReader(
			"postcode,street\nSW1A 1AA,The Mall\nSW1A 1AA,Spur Road\n"),
		PropertyMix: strings.NewReader(
			"postcode,detached,flats\nSW1A 1AA,1,4\n"),
		LocalityTowns: strings.NewReader(
			"locality_key,town_city\nABBERTON,COLCHESTER\nABBERTON,COLCHESTER\nABBERTON,PERSHORE\nHORNDEAN,WATERLOOVILLE\n"),
	})
	if err != nil {
		t.Fatalf("Parse tables: %v", err)
	}
	return tables
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	tables := testTables(t)
	tg := &stubTagger{labels: map[string]string{
		"FLAT":   tagger.SubBuildingName,
		"2":      tagger.SubBuildingName,
		"10":     tagger.BuildingNumber,
		"QUEEN":  tagger.StreetName,
		"STREET": tagger.StreetName,
		"BURY":   tagger.TownName,
		"BL8":    tagger.Postcode,
		"1JG":    tagger.Postcode,
	}}
	h := &APIHandler{
		Parser:       parser.New(tables, tg),
		Postcodes:    postcode.NewDirectory(tables),
		Localities:   locality.NewIndex(tables.LocalityTowns),
		BatchWorkers: 2,
		BatchLimit:   4,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/parse", h.Parse).Methods("POST")
	r.HandleFunc("/api/parse/batch", h.ParseBatch).Methods("POST")
	r.HandleFunc("/api/postcode/{code}", h.Postcode).Methods("GET")
	r.HandleFunc("/api/locality/{name}", h.Locality).Methods("GET")
	r.HandleFunc("/healthz", h.Health).Methods("GET")
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestParseEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "POST", "/api/parse",
		`{"address":"Flat 2, 10 Queen Street, Bury BL8 1JG"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Address struct {
			SubBuildingName string `json:"sub_building_name"`
			BuildingNumber  string `json:"building_number"`
			StreetName      string `json:"street_name"`
			TownName        string `json:"town_name"`
			Postcode        string `json:"postcode"`
		} `json:"address"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Address.Postcode != "BL8 1JG" {
		t.Errorf("postcode = %q, want BL8 1JG", resp.Address.Postcode)
	}
	if resp.Address.StreetName != "QUEEN STREET" {
		t.Errorf("street = %q, want QUEEN STREET", resp.Address.StreetName)
	}
	if resp.Address.BuildingNumber != "10" {
		t.Errorf("building number = %q, want 10", resp.Address.BuildingNumber)
	}
}

func TestParseEndpointRejectsBadBody(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{`},
		{"missing address", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, "POST", "/api/parse", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestParseBatchEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "POST", "/api/parse/batch",
		`{"addresses":["10 Queen Street Bury","Flat 2 10 Queen Street"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Results []struct {
			Input string `json:"input"`
			Err   string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.Results))
	}
	if resp.Results[0].Input != "10 Queen Street Bury" {
		t.Errorf("results out of order: %q", resp.Results[0].Input)
	}
}

func TestParseBatchEndpointLimit(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "POST", "/api/parse/batch",
		`{"addresses":["a","b","c","d","e"]}`)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestPostcodeEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "GET", "/api/postcode/sw1a1aa", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Postcode    string             `json:"postcode"`
		Outcode     string             `json:"outcode"`
		PostTown    string             `json:"post_town"`
		Locality    string             `json:"locality"`
		Streets     []string           `json:"streets"`
		PropertyMix map[string]float64 `json:"property_mix"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Postcode != "SW1A 1AA" || resp.Outcode != "SW1A" {
		t.Errorf("postcode = %q outcode = %q", resp.Postcode, resp.Outcode)
	}
	if resp.PostTown != "LONDON" {
		t.Errorf("post town = %q, want LONDON", resp.PostTown)
	}
	if resp.Locality != "WESTMINSTER" {
		t.Errorf("locality = %q, want WESTMINSTER", resp.Locality)
	}
	if len(resp.Streets) != 2 || resp.Streets[0] != "SPUR ROAD" {
		t.Errorf("streets = %v, want sorted uppercase", resp.Streets)
	}
	if resp.PropertyMix["flats"] != 4 {
		t.Errorf("property mix = %v", resp.PropertyMix)
	}
}

func TestPostcodeEndpointInvalid(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "GET", "/api/postcode/NOTACODE", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestLocalityEndpoint(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantTowns  []string
	}{
		{"most common default", "/api/locality/ABBERTON", http.StatusOK, []string{"COLCHESTER"}},
		{"all", "/api/locality/ABBERTON?policy=all", http.StatusOK, []string{"COLCHESTER", "PERSHORE"}},
		{"first", "/api/locality/ABBERTON?policy=first", http.StatusOK, []string{"COLCHESTER"}},
		{"error policy ambiguous", "/api/locality/ABBERTON?policy=error", http.StatusConflict, nil},
		{"unknown", "/api/locality/NOWHERE", http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, router, "GET", tt.path, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantTowns == nil {
				return
			}
			var resp struct {
				Towns []string `json:"towns"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(resp.Towns) != len(tt.wantTowns) {
				t.Fatalf("towns = %v, want %v", resp.Towns, tt.wantTowns)
			}
			for i := range resp.Towns {
				if resp.Towns[i] != tt.wantTowns[i] {
					t.Errorf("towns = %v, want %v", resp.Towns, tt.wantTowns)
					break
				}
			}
		})
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doRequest(t, router, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %s", w.Body.String())
	}
}
