package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/bledden/tinker-voice/pkg/types"
)

// KeyManager reads, replaces, and tests vendor keys.
type KeyManager interface {
	Status() []domain.KeyStatus
	Set(s domain.Service, key string) error
	Test(ctx context.Context, s domain.Service) (domain.KeyStatus, error)
}

// KeysHandler manages vendor API keys.
type KeysHandler struct {
	keys KeyManager
}

// NewKeysHandler creates a new KeysHandler.
func NewKeysHandler(keys KeyManager) *KeysHandler {
	return &KeysHandler{keys: keys}
}

// ListKeysOutput is the response body for the key status endpoint.
type ListKeysOutput struct {
	Body struct {
		Keys []domain.KeyStatus `json:"keys"`
	}
}

// ServicePath identifies a vendor in the URL.
type ServicePath struct {
	Service string `path:"service" enum:"elevenlabs,anthropic,tonic,yutori,tinker" doc:"Vendor service name"`
}

// SetKeyInput is the request for replacing a key.
type SetKeyInput struct {
	ServicePath
	Body struct {
		APIKey string `json:"api_key" doc:"New API key; empty clears the key"`
	}
}

// KeyStatusOutput is the response body for a single key.
type KeyStatusOutput struct {
	Body domain.KeyStatus
}

// List returns the status of every vendor key.
func (h *KeysHandler) List(_ context.Context, _ *struct{}) (*ListKeysOutput, error) {
	resp := &ListKeysOutput{}
	resp.Body.Keys = h.keys.Status()
	return resp, nil
}

// Set replaces a vendor key.
func (h *KeysHandler) Set(_ context.Context, input *SetKeyInput) (*KeyStatusOutput, error) {
	s, err := domain.ParseService(input.Service)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	if err := h.keys.Set(s, input.Body.APIKey); err != nil {
		return nil, apiError("setting key", err)
	}
	for _, st := range h.keys.Status() {
		if st.Service == s {
			return &KeyStatusOutput{Body: st}, nil
		}
	}
	return &KeyStatusOutput{Body: domain.KeyStatus{Service: s, Configured: input.Body.APIKey != ""}}, nil
}

// TestKeyInput is the request for testing a key.
type TestKeyInput struct {
	ServicePath
}

// Test pings the vendor with its current key.
func (h *KeysHandler) Test(ctx context.Context, input *TestKeyInput) (*KeyStatusOutput, error) {
	s, err := domain.ParseService(input.Service)
	if err != nil {
		return nil, huma.Error404NotFound(err.Error())
	}
	st, err := h.keys.Test(ctx, s)
	if err != nil {
		return nil, apiError("testing key", err)
	}
	return &KeyStatusOutput{Body: st}, nil
}

// RegisterKeysRoutes registers key management endpoints with the Huma API.
func RegisterKeysRoutes(api huma.API, h *KeysHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-keys",
		Method:      http.MethodGet,
		Path:        "/api/v1/keys",
		Summary:     "List vendor key status",
		Tags:        []string{"keys"},
	}, h.List)

	huma.Register(api, huma.Operation{
		OperationID: "set-key",
		Method:      http.MethodPut,
		Path:        "/api/v1/keys/{service}",
		Summary:     "Set a vendor API key",
		Tags:        []string{"keys"},
		Errors:      []int{http.StatusNotFound},
	}, h.Set)

	huma.Register(api, huma.Operation{
		OperationID: "test-key",
		Method:      http.MethodPost,
		Path:        "/api/v1/keys/{service}/test",
		Summary:     "Test a vendor API key",
		Description: "Makes a cheap authenticated call to the vendor and records the outcome.",
		Tags:        []string{"keys"},
		Errors:      []int{http.StatusNotFound},
	}, h.Test)
}
