package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/app"
	"github.com/bledden/tinker-voice/internal/metrics"
	"github.com/bledden/tinker-voice/internal/remote"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

type mockPinger struct {
	mock.Mock
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newKeys(
	t *testing.T,
	secrets map[domain.Service]string,
	pingers map[domain.Service]app.Pinger,
) (*app.Keys, map[domain.Service]*remote.Credential) {
	t.Helper()
	creds := make(map[domain.Service]*remote.Credential)
	for _, s := range domain.Services {
		creds[s] = remote.NewCredential(secrets[s])
	}
	return app.NewKeys(creds, pingers, app.WithKeysNowFunc(func() time.Time { return fixedNow })), creds
}

func TestKeys_Status(t *testing.T) {
	t.Parallel()

	k, _ := newKeys(t, map[domain.Service]string{domain.ServiceTonic: "tk"}, nil)

	got := k.Status()
	require.Len(t, got, len(domain.Services))
	for i, st := range got {
		assert.Equal(t, domain.Services[i], st.Service)
		assert.Equal(t, st.Service == domain.ServiceTonic, st.Configured)
		assert.Nil(t, st.Valid)
		assert.Nil(t, st.LastChecked)
	}
}

func TestKeys_Set(t *testing.T) {
	t.Parallel()

	k, creds := newKeys(t, nil, nil)

	require.NoError(t, k.Set(domain.ServiceYutori, "yk"))
	secret, ok := creds[domain.ServiceYutori].Secret()
	assert.True(t, ok)
	assert.Equal(t, "yk", secret)

	st, err := k.StatusOf(domain.ServiceYutori)
	require.NoError(t, err)
	assert.True(t, st.Configured)

	require.NoError(t, k.Set(domain.ServiceYutori, ""))
	assert.False(t, creds[domain.ServiceYutori].Configured())

	require.ErrorIs(t, k.Set("nope", "x"), app.ErrUnknownService)
}

func TestKeys_Test(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		pingErr   error
		wantValid bool
		wantError string
		wantUp    float64
	}{
		{name: "valid", wantValid: true, wantUp: 1},
		{
			name:      "unauthorized",
			pingErr:   &remote.Error{Service: domain.ServiceTinker, Kind: remote.ErrUnauthorized, Status: 401},
			wantValid: false,
			wantError: "unauthorized",
			wantUp:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := &mockPinger{}
			p.On("Ping", mock.Anything).Return(tt.pingErr).Once()
			k, _ := newKeys(t,
				map[domain.Service]string{domain.ServiceTinker: "tk"},
				map[domain.Service]app.Pinger{domain.ServiceTinker: p},
			)

			st, err := k.Test(context.Background(), domain.ServiceTinker)
			require.NoError(t, err)
			require.NotNil(t, st.Valid)
			assert.Equal(t, tt.wantValid, *st.Valid)
			require.NotNil(t, st.LastChecked)
			assert.Equal(t, fixedNow, *st.LastChecked)
			if tt.wantError != "" {
				assert.Contains(t, st.LastError, tt.wantError)
			} else {
				assert.Empty(t, st.LastError)
			}
			p.AssertExpectations(t)
		})
	}
}

func TestKeys_Test_RecordsVendorUp(t *testing.T) {
	t.Parallel()

	p := &mockPinger{}
	p.On("Ping", mock.Anything).Return(nil)
	k, _ := newKeys(t,
		map[domain.Service]string{domain.ServiceElevenLabs: "el"},
		map[domain.Service]app.Pinger{domain.ServiceElevenLabs: p},
	)

	_, err := k.Test(context.Background(), domain.ServiceElevenLabs)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.VendorUp.WithLabelValues("elevenlabs")), 0)
}

func TestKeys_Set_ClearsLastCheck(t *testing.T) {
	t.Parallel()

	p := &mockPinger{}
	p.On("Ping", mock.Anything).Return(errors.New("boom"))
	k, _ := newKeys(t,
		map[domain.Service]string{domain.ServiceTonic: "old"},
		map[domain.Service]app.Pinger{domain.ServiceTonic: p},
	)

	_, err := k.Test(context.Background(), domain.ServiceTonic)
	require.NoError(t, err)
	require.NoError(t, k.Set(domain.ServiceTonic, "new"))

	st, err := k.StatusOf(domain.ServiceTonic)
	require.NoError(t, err)
	assert.Nil(t, st.Valid)
	assert.Empty(t, st.LastError)
}

// pingFunc adapts a function to app.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestKeys_Test_DiscardsResultForReplacedKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		newKey  string
		pingErr error
	}{
		{name: "success for old key", newKey: "rotated"},
		{name: "failure for old key", newKey: "rotated", pingErr: errors.New("unauthorized")},
		{name: "key cleared mid test", newKey: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var k *app.Keys
			pinger := pingFunc(func(context.Context) error {
				require.NoError(t, k.Set(domain.ServiceYutori, tt.newKey))
				return tt.pingErr
			})
			k, _ = newKeys(t,
				map[domain.Service]string{domain.ServiceYutori: "original"},
				map[domain.Service]app.Pinger{domain.ServiceYutori: pinger},
			)

			got, err := k.Test(context.Background(), domain.ServiceYutori)
			require.NoError(t, err)
			assert.Nil(t, got.Valid)
			assert.Nil(t, got.LastChecked)
			assert.Empty(t, got.LastError)
			assert.Equal(t, tt.newKey != "", got.Configured)

			st, err := k.StatusOf(domain.ServiceYutori)
			require.NoError(t, err)
			assert.Equal(t, got, st)
		})
	}
}

func TestKeys_Test_Unknown(t *testing.T) {
	t.Parallel()

	k, _ := newKeys(t, nil, nil)

	_, err := k.Test(context.Background(), "nope")
	require.ErrorIs(t, err, app.ErrUnknownService)

	_, err = k.Test(context.Background(), domain.ServiceTonic)
	require.ErrorIs(t, err, app.ErrUnknownService)
}

func TestKeys_TestAll_SkipsUnconfigured(t *testing.T) {
	t.Parallel()

	configured := &mockPinger{}
	configured.On("Ping", mock.Anything).Return(nil).Once()
	unconfigured := &mockPinger{}

	k, _ := newKeys(t,
		map[domain.Service]string{domain.ServiceYutori: "yk"},
		map[domain.Service]app.Pinger{
			domain.ServiceYutori: configured,
			domain.ServiceTinker: unconfigured,
		},
	)

	got := k.TestAll(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, domain.ServiceYutori, got[0].Service)
	configured.AssertExpectations(t)
	unconfigured.AssertNotCalled(t, "Ping", mock.Anything)
}
