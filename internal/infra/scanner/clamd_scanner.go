// Package scanner checks uploaded bytes with a clamd daemon.
package scanner

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"tradepost/config"
	"tradepost/internal/domain/service"

	"github.com/dutchcoders/go-clamd"
	"github.com/pkg/errors"
)

const defaultScanTimeout = 5 * time.Second

// streamScanner is the part of the clamd client the scanner uses.
type streamScanner interface {
	ScanStream(r io.Reader, abort chan bool) (chan *clamd.ScanResult, error)
}

type clamdScanner struct {
	client  streamScanner
	timeout time.Duration
}

// New returns a clamd scanner, or nil when no daemon is configured.
// A nil scanner turns the malware layer of the image validator off.
func New(cfg *config.Config, logger *slog.Logger) service.MalwareScanner {
	if cfg.Scanner == nil || strings.TrimSpace(cfg.Scanner.Address) == "" {
		logger.Info("Malware scanner not configured, uploads are not scanned")

		return nil
	}

	timeout := cfg.Scanner.Timeout
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}

	logger.Info("Malware scanner enabled",
		slog.String("address", cfg.Scanner.Address),
		slog.Duration("timeout", timeout),
	)

	return &clamdScanner{client: clamd.NewClamd(cfg.Scanner.Address), timeout: timeout}
}

// Scan streams data to clamd. Any transport problem or timeout is returned as an error.
func (s *clamdScanner) Scan(ctx context.Context, data []byte) (*service.ScanResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	abort := make(chan bool, 1)
	results, err := s.client.ScanStream(bytes.NewReader(data), abort)
	if err != nil {
		return nil, errors.Wrap(err, "clamd scan stream")
	}

	verdict := &service.ScanResult{}
	for {
		select {
		case <-ctx.Done():
			abort <- true

			return nil, errors.Wrap(ctx.Err(), "clamd scan timed out")
		case result, ok := <-results:
			if !ok {
				return verdict, nil
			}

			switch result.Status {
			case clamd.RES_FOUND:
				verdict.Infected = true
				verdict.Signature = result.Description
			case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
				return nil, errors.Errorf("clamd error: %s", result.Raw)
			}
		}
	}
}
