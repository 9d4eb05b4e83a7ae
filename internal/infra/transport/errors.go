package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/Scarage1/API-Watch/internal/core/domain"
)

// Error wraps a transport-level failure with its kind.
type Error struct {
	Kind domain.ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failure for %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies a transport error into an ErrorKind. Typed checks first,
// string matching as a last resort for errors that carry no type.
func KindOf(err error) domain.ErrorKind {
	if err == nil {
		return domain.KindOther
	}

	if errors.Is(err, context.Canceled) {
		return domain.KindOther
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return domain.KindTimeout
	}

	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return domain.KindTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return domain.KindTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return domain.KindConnection
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
		syscall.EPIPE,
	} {
		if errors.Is(err, errno) {
			return domain.KindConnection
		}
	}
	var oerr *net.OpError
	if errors.As(err, &oerr) && oerr.Op == "dial" {
		return domain.KindConnection
	}

	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "connection refused"),
		strings.Contains(s, "connection reset"),
		strings.Contains(s, "no such host"),
		strings.Contains(s, "network is unreachable"):
		return domain.KindConnection
	case strings.Contains(s, "timeout"), strings.Contains(s, "deadline exceeded"):
		return domain.KindTimeout
	}

	return domain.KindOther
}
