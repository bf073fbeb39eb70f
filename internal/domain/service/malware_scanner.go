package service

import "context"

// ScanResult is the verdict of a malware scan.
type ScanResult struct {
	Infected  bool
	Signature string
}

// MalwareScanner scans bytes with an external daemon.
// An error means the scanner could not be reached; callers treat it as a skip.
type MalwareScanner interface {
	Scan(ctx context.Context, data []byte) (*ScanResult, error)
}
