package saavn_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/saavn/config"
	"github.com/xeptore/saavn/saavn"
	"github.com/xeptore/saavn/saavn/download"
	"github.com/xeptore/saavn/saavn/endpoint"
	"github.com/xeptore/saavn/saavn/link"
	"github.com/xeptore/saavn/saavn/service"
	"github.com/xeptore/saavn/saavn/types"
)

func TestReason(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "canceled", err: fmt.Errorf("wrapped: %w", context.Canceled), want: saavn.ReasonCanceled},
		{name: "deadline", err: context.DeadlineExceeded, want: saavn.ReasonTransport},
		{name: "segment", err: fmt.Errorf("resolve: %w", link.ErrSegmentNotFound), want: saavn.ReasonInvalidInput},
		{name: "bad type", err: link.ErrInvalidInput, want: saavn.ReasonInvalidInput},
		{name: "empty query", err: service.ErrInvalidArgument, want: saavn.ReasonInvalidInput},
		{name: "not found", err: errors.Join(errors.New("other"), endpoint.ErrNotFound), want: saavn.ReasonNotFound},
		{name: "malformed", err: endpoint.ErrMalformedResponse, want: saavn.ReasonMalformed},
		{name: "missing field", err: service.ErrMissingField, want: saavn.ReasonMalformed},
		{name: "not audio", err: download.ErrNotAudio, want: saavn.ReasonMalformed},
		{name: "status", err: &endpoint.StatusError{Code: 503, Body: ""}, want: saavn.ReasonTransport},
		{name: "api failure", err: endpoint.ErrAPIFailure, want: saavn.ReasonTransport},
		{name: "other", err: errors.New("boom"), want: saavn.ReasonUnknown},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.want, saavn.Reason(test.err))
		})
	}
}

func TestNewClientWiring(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("__call") != "content.getCharts" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"chart"}]`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	filename := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(
		"saavn:\n  base_url: %s\n  retries:\n    max: 0\ndownloads:\n  dir: %s\n  index_path: %s\n",
		srv.URL, filepath.Join(dir, "downloads"), filepath.Join(dir, "downloads.db"),
	)
	require.NoError(t, os.WriteFile(filename, []byte(content), 0o600))

	conf, err := config.Load(filename)
	require.NoError(t, err)

	client, err := saavn.NewClient(conf)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	charts, err := client.Charts(t.Context(), zerolog.Nop())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"chart"}]`, string(charts))

	_, err = client.SongDetails(t.Context(), zerolog.Nop(), types.ByID("1"))
	require.ErrorIs(t, err, endpoint.ErrUnexpectedStatus)
	assert.Equal(t, saavn.ReasonTransport, saavn.Reason(err))

	d, closeIndex, err := client.NewDownloader()
	require.NoError(t, err)
	require.NotNil(t, d)
	require.NoError(t, closeIndex())
}
