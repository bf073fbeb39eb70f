package scanner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"tradepost/config"
	"tradepost/internal/testutil"

	"github.com/dutchcoders/go-clamd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClamd struct {
	results []*clamd.ScanResult
	err     error
	hang    bool
}

func (f *fakeClamd) ScanStream(r io.Reader, abort chan bool) (chan *clamd.ScanResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	_, _ = io.ReadAll(r)

	ch := make(chan *clamd.ScanResult, len(f.results))
	if f.hang {
		return ch, nil
	}
	for _, res := range f.results {
		ch <- res
	}
	close(ch)

	return ch, nil
}

func TestClamdScanner_Scan_Clean(t *testing.T) {
	s := &clamdScanner{client: &fakeClamd{results: []*clamd.ScanResult{{Status: clamd.RES_OK}}}, timeout: time.Second}

	got, err := s.Scan(context.Background(), []byte("data"))

	require.NoError(t, err)
	assert.False(t, got.Infected)
}

func TestClamdScanner_Scan_Infected(t *testing.T) {
	s := &clamdScanner{client: &fakeClamd{results: []*clamd.ScanResult{
		{Status: clamd.RES_FOUND, Description: "Eicar-Test-Signature"},
	}}, timeout: time.Second}

	got, err := s.Scan(context.Background(), []byte("X5O!P%@AP"))

	require.NoError(t, err)
	assert.True(t, got.Infected)
	assert.Equal(t, "Eicar-Test-Signature", got.Signature)
}

func TestClamdScanner_Scan_Errors(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClamd
	}{
		{name: "unreachable", client: &fakeClamd{err: errors.New("dial tcp: connection refused")}},
		{name: "daemon error", client: &fakeClamd{results: []*clamd.ScanResult{{Status: clamd.RES_ERROR, Raw: "size limit exceeded"}}}},
		{name: "timeout", client: &fakeClamd{hang: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &clamdScanner{client: tt.client, timeout: 20 * time.Millisecond}

			got, err := s.Scan(context.Background(), []byte("data"))

			require.Error(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestNew_Unconfigured(t *testing.T) {
	assert.Nil(t, New(&config.Config{}, testutil.NewLogger()))
	assert.Nil(t, New(&config.Config{Scanner: &config.ScannerConfig{Address: " "}}, testutil.NewLogger()))
}

func TestNew_Configured(t *testing.T) {
	s := New(&config.Config{Scanner: &config.ScannerConfig{Address: "tcp://127.0.0.1:3310"}}, testutil.NewLogger())

	require.NotNil(t, s)
	assert.Equal(t, defaultScanTimeout, s.(*clamdScanner).timeout)
}
