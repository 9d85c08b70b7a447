// Package api - API types for budgets, instruments and calculations.
// The API is stateless apart from the store behind the service.
package api

import (
	"uncertainty-budget/core/budget"
	"uncertainty-budget/core/component"
	"uncertainty-budget/core/history"
	"uncertainty-budget/core/instrument"
	"uncertainty-budget/core/service"
)

// ComputeRequest is the input to POST /budgets/compute
type ComputeRequest struct {
	Range      budget.ReferenceRange `json:"range"`
	Components []component.Component `json:"components"`
}

// ComputeResponse is a computed sheet with request metadata
type ComputeResponse struct {
	*budget.Sheet
	Metadata *ResponseMetadata `json:"metadata"`
}

// CalculationRequest is the input to POST /calculations
type CalculationRequest struct {
	service.Selection
	Components []component.Component `json:"components"`
}

// ResponseMetadata contains execution metadata
type ResponseMetadata struct {
	RequestID     string `json:"request_id"`
	InputHash     string `json:"input_hash"`
	EngineVersion string `json:"engine_version"`
	DurationMs    int64  `json:"duration_ms"`
}

// DefaultsResponse is the output of the defaults endpoint
type DefaultsResponse struct {
	Range      budget.ReferenceRange `json:"range"`
	Components []component.Component `json:"components"`
}

// InstrumentList is the output of GET /instruments
type InstrumentList struct {
	Instruments []*instrument.Instrument `json:"instruments"`
	Count       int                      `json:"count"`
}

// CalculationList is the output of GET /calculations
type CalculationList struct {
	Calculations []*history.Record `json:"calculations"`
	Count        int               `json:"count"`
}

// ErrorResponse is the error envelope
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes an error
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
