package handlers

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bledden/tinker-voice/internal/app"
	"github.com/bledden/tinker-voice/internal/dataset"
	"github.com/bledden/tinker-voice/internal/elevenlabs"
	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/remote"
	"github.com/bledden/tinker-voice/internal/tinker"
	"github.com/bledden/tinker-voice/internal/tonic"
	"github.com/bledden/tinker-voice/internal/yutori"
	"github.com/bledden/tinker-voice/pkg/extract"
)

// apiError translates the error taxonomy into an HTTP status error. The
// message is prefixed with what the handler was doing.
func apiError(action string, err error) error {
	msg := action + ": " + err.Error()
	switch {
	case errors.Is(err, remote.ErrMissingCredential):
		return huma.Error412PreconditionFailed(msg)
	case errors.Is(err, remote.ErrUnauthorized):
		return huma.Error401Unauthorized(msg)
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, app.ErrUnknownService):
		return huma.Error404NotFound(msg)
	case errors.Is(err, remote.ErrRateLimited):
		return huma.Error429TooManyRequests(msg)
	case errors.Is(err, poll.ErrTimedOut):
		return huma.Error504GatewayTimeout(msg)
	case errors.Is(err, tinker.ErrInvalidConfig),
		errors.Is(err, tonic.ErrInvalidRequest),
		errors.Is(err, yutori.ErrEmptyQuery),
		errors.Is(err, elevenlabs.ErrInvalidAudio),
		errors.Is(err, elevenlabs.ErrEmptyText),
		errors.Is(err, tinker.ErrEmptyDataset),
		errors.Is(err, dataset.ErrUnsupportedFormat),
		errors.Is(err, dataset.ErrEmpty),
		errors.Is(err, dataset.ErrMissingColumn),
		errors.Is(err, dataset.ErrInvalidRecord):
		return huma.Error422UnprocessableEntity(msg)
	case errors.Is(err, poll.ErrRemoteFailed),
		errors.Is(err, remote.ErrInvalidResponse),
		errors.Is(err, remote.ErrRemote),
		errors.Is(err, remote.ErrTransport),
		errors.Is(err, extract.ErrNoJSONFound),
		errors.Is(err, extract.ErrMalformed),
		errors.Is(err, extract.ErrSchemaMismatch):
		return huma.Error502BadGateway(msg)
	default:
		return huma.Error500InternalServerError(msg)
	}
}

// vendorErrors are the statuses apiError can produce for a vendor call.
var vendorErrors = []int{
	http.StatusUnauthorized,
	http.StatusNotFound,
	http.StatusPreconditionFailed,
	http.StatusUnprocessableEntity,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
}

// pollErrors adds the timeout status for calls that wait on a remote job.
var pollErrors = append(append([]int{}, vendorErrors...), http.StatusGatewayTimeout)
