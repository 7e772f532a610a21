// Package domain defines the core types shared across the tinker-voice
// services and surfaces.
package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Service names a third-party vendor integration.
type Service string

// Service constants.
const (
	ServiceElevenLabs Service = "elevenlabs"
	ServiceAnthropic  Service = "anthropic"
	ServiceTonic      Service = "tonic"
	ServiceYutori     Service = "yutori"
	ServiceTinker     Service = "tinker"
)

// Services lists every known vendor integration in display order.
var Services = []Service{
	ServiceElevenLabs,
	ServiceAnthropic,
	ServiceTonic,
	ServiceYutori,
	ServiceTinker,
}

// ParseService converts a case-insensitive service name to a Service.
func ParseService(name string) (Service, error) {
	s := Service(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(Services, s) {
		return "", fmt.Errorf("unknown service %q", name)
	}
	return s, nil
}

// EnvKey returns the environment variable holding the service's API key.
func (s Service) EnvKey() string {
	return strings.ToUpper(string(s)) + "_API_KEY"
}

// TrainingExample is a single supervised fine-tuning record.
type TrainingExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	System string `json:"system,omitempty"`
}

// KeyStatus reports whether a service credential is configured and the
// outcome of its most recent connection test.
type KeyStatus struct {
	Service     Service    `json:"service"`
	Configured  bool       `json:"is_configured"`
	Valid       *bool      `json:"is_valid,omitempty"`
	LastChecked *time.Time `json:"last_checked,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
}
