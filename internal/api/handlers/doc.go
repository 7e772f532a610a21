package handlers

import domain "github.com/bledden/tinker-voice/pkg/types"

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadinessResponse is the readiness probe body.
type ReadinessResponse struct {
	Status  string           `json:"status"            example:"ready"`
	Failing []domain.Service `json:"failing,omitempty" doc:"Services whose last connection test failed"`
}
