package httputil

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
)

// QueryFloat parses a required finite float query parameter.
func QueryFloat(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, fmt.Errorf("missing %s parameter", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s parameter %q", name, s)
	}
	return v, nil
}

// QueryFloatDefault parses an optional float query parameter.
func QueryFloatDefault(r *http.Request, name string, def float64) (float64, error) {
	if r.URL.Query().Get(name) == "" {
		return def, nil
	}
	return QueryFloat(r, name)
}

// QueryRaDec parses the ra and dec parameters and checks dec is in range.
func QueryRaDec(r *http.Request) (ra, dec float64, err error) {
	if ra, err = QueryFloat(r, "ra"); err != nil {
		return 0, 0, err
	}
	if dec, err = QueryFloat(r, "dec"); err != nil {
		return 0, 0, err
	}
	if dec < -90 || dec > 90 {
		return 0, 0, fmt.Errorf("dec %v outside [-90, 90]", dec)
	}
	return ra, dec, nil
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
