package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dutchcoders/go-clamd"
)

// ErrInfected 表示上传文件被病毒扫描判定为恶意。
var ErrInfected = errors.New("malicious file detected")

// Scanner inspects an uploaded file before it is parsed.
type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// ClamdScanner streams uploads to a clamd daemon.
type ClamdScanner struct {
	address string
}

// NewClamdScanner returns nil when address is empty so that scanning is skipped.
func NewClamdScanner(address string) Scanner {
	if strings.TrimSpace(address) == "" {
		return nil
	}
	return &ClamdScanner{address: address}
}

func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) error {
	client := clamd.NewClamd(s.address)

	abort := make(chan bool)
	defer close(abort)

	results, err := client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("scan file: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case result, ok := <-results:
			if !ok {
				return nil
			}
			switch result.Status {
			case clamd.RES_OK:
			case clamd.RES_FOUND:
				return fmt.Errorf("%w: %s", ErrInfected, result.Description)
			default:
				return fmt.Errorf("scan file: clamd returned %s %s", result.Status, result.Description)
			}
		}
	}
}
