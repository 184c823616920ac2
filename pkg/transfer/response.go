// Package transfer holds the JSON payloads shared by the prime service
// and its client.
package transfer

import (
	"encoding/json"
	"net/http"
)

// Metadata identifies the server instance that answered a request.
type Metadata struct {
	Identity string            `json:"identity"`
	Hostname string            `json:"hostname"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// PrimeResponse is the body returned for a successful prime lookup.
type PrimeResponse struct {
	N        uint64   `json:"n"`
	Prime    uint64   `json:"prime"`
	Detector string   `json:"detector"`
	Metadata Metadata `json:"metadata"`
}

// ErrorResponse is the body returned for a failed prime lookup.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UnmarshalResponse populates p from an HTTP response body. The caller
// retains ownership of the body and must close it.
func (p *PrimeResponse) UnmarshalResponse(r *http.Response) error {
	return json.NewDecoder(r.Body).Decode(p)
}
