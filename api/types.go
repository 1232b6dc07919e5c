// Package api - API types for quoting
// These types define the contract for the /quote endpoint.
package api

import (
	"opticost/adapters/jobfile"
	"opticost/core/types"
)

// QuoteRequest is the input to POST /quote
type QuoteRequest struct {
	// Job describes the installation to quote
	Job *jobfile.Spec `json:"job"`

	// Logistics, when present, is used instead of a provider lookup
	Logistics *types.LogisticsData `json:"logistics,omitempty"`

	// ExternalPolicy overrides the server's external crew policy for this quote
	ExternalPolicy types.ExternalPolicy `json:"external_policy,omitempty"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes a failed request
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Time           string `json:"time"`
	TablesLoadedAt string `json:"tables_loaded_at,omitempty"`
}

// VersionResponse is returned by GET /version
type VersionResponse struct {
	Version    string `json:"version"`
	Engine     string `json:"engine"`
	APIVersion string `json:"api_version"`
}
