package web

import (
	"encoding/json"
	"net/http"
)

// Problem types for RFC 7807 Problem Details responses from the JSON API.
const (
	problemTypeInternal    = "https://kiroku.dev/problems/internal-error"
	problemTypeUnavailable = "https://kiroku.dev/problems/store-unavailable"
)

// problem is an RFC 7807 Problem Details body.
type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// writeProblem writes an RFC 7807 response for API failures.
func writeProblem(w http.ResponseWriter, status int, detail string) {
	typ := problemTypeInternal
	if status == http.StatusServiceUnavailable {
		typ = problemTypeUnavailable
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{
		Type:   typ,
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
