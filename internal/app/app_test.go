package app_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bledden/tinker-voice/internal/app"
	"github.com/bledden/tinker-voice/internal/config"
	"github.com/bledden/tinker-voice/internal/poll"
	"github.com/bledden/tinker-voice/internal/yutori"
	domain "github.com/bledden/tinker-voice/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	for _, v := range []*config.VendorConfig{
		&cfg.Services.ElevenLabs.VendorConfig,
		&cfg.Services.Anthropic.VendorConfig,
		&cfg.Services.Tonic,
		&cfg.Services.Yutori,
		&cfg.Services.Tinker,
	} {
		v.APIKey = ""
		v.BaseURL = baseURL
	}
	return cfg
}

func TestNew_WiresCredentialsToClients(t *testing.T) {
	t.Parallel()

	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	t.Cleanup(srv.Close)

	svc, err := app.New(testConfig(srv.URL), quietLogger())
	require.NoError(t, err)

	// Setting a key through the manager reaches the vendor client.
	require.NoError(t, svc.Keys.Set(domain.ServiceTinker, "tk-live"))
	st, err := svc.Keys.Test(context.Background(), domain.ServiceTinker)
	require.NoError(t, err)
	require.NotNil(t, st.Valid)
	assert.True(t, *st.Valid)
	assert.Equal(t, "Bearer tk-live", gotAuth.Load())

	// An unset key fails without reaching the server.
	st, err = svc.Keys.Test(context.Background(), domain.ServiceYutori)
	require.NoError(t, err)
	require.NotNil(t, st.Valid)
	assert.False(t, *st.Valid)
	assert.Contains(t, st.LastError, "missing credential")
}

func TestNew_ResearchUsesConfiguredPolicy(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`{"research_id": "r1", "status": "pending"}`))
			return
		}
		fetches.Add(1)
		_, _ = w.Write([]byte(`{"research_id": "r1", "status": "in_progress"}`))
	}))
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	cfg.Services.Yutori.APIKey = "yk"
	cfg.Polling.Research = poll.Policy{
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   1,
		MaxAttempts:  3,
	}

	svc, err := app.New(cfg, quietLogger(),
		app.WithPollOptions(poll.WithSleep(func(context.Context, time.Duration) error { return nil })),
	)
	require.NoError(t, err)

	_, err = svc.Research.Research(context.Background(), yutori.ResearchRequest{Query: "q"})
	require.ErrorIs(t, err, poll.ErrTimedOut)
	assert.Equal(t, int32(3), fetches.Load())
}

func TestNew_AgentBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		backend  string
		endpoint string
		want     string
		wantErr  bool
	}{
		{backend: "anthropic", want: "anthropic"},
		{backend: "ollama", endpoint: "http://localhost:11434", want: "ollama"},
		{backend: "openai_compat", endpoint: "http://localhost:8000", want: "openai_compat"},
		{backend: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig("http://127.0.0.1:1")
			cfg.LLM.Backend = tt.backend
			cfg.LLM.Ollama.Endpoint = tt.endpoint
			cfg.LLM.OpenAICompat.Endpoint = tt.endpoint

			svc, err := app.New(cfg, quietLogger())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Agents.Backend().Name())
		})
	}
}

func TestHealthChecker(t *testing.T) {
	t.Parallel()

	p := &mockPinger{}
	p.On("Ping", mock.Anything).Return(nil).Once()
	k, _ := newKeys(t,
		map[domain.Service]string{domain.ServiceTonic: "tk"},
		map[domain.Service]app.Pinger{domain.ServiceTonic: p},
	)

	h, err := app.NewHealthChecker(k, 15*time.Minute, time.Second, quietLogger())
	require.NoError(t, err)
	assert.Len(t, h.Entries(), 1)

	h.RunOnce()
	st, err := k.StatusOf(domain.ServiceTonic)
	require.NoError(t, err)
	require.NotNil(t, st.Valid)
	assert.True(t, *st.Valid)
	p.AssertExpectations(t)

	h.Start()
	<-h.Stop().Done()
}
