package remote

import "net/http"

// Authenticator attaches a vendor secret to an outgoing request.
type Authenticator interface {
	Apply(h http.Header, secret string)
}

// BearerAuth sends the secret as an "Authorization: Bearer" header.
type BearerAuth struct{}

// Apply implements Authenticator.
func (BearerAuth) Apply(h http.Header, secret string) {
	h.Set("Authorization", "Bearer "+secret)
}

// HeaderAuth sends the secret in a vendor-specific header such as
// x-api-key or xi-api-key.
type HeaderAuth struct {
	Name string
}

// Apply implements Authenticator.
func (a HeaderAuth) Apply(h http.Header, secret string) {
	h.Set(a.Name, secret)
}
