package rpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hiq-lab/arvak-go/internal/core/domain"
)

// IsTransient reports whether err is a transient remote error worth
// retrying: the service was unreachable or overloaded rather than rejecting
// the request. Breaker-open rejections are local and never transient.
func IsTransient(err error) bool {
	if err == nil || domain.IsBreakerOpen(err) {
		return false
	}
	s, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return true
	}
	return false
}

// IsPermanent reports whether err is a remote rejection that retrying
// cannot fix (invalid input, unknown job, and so on).
func IsPermanent(err error) bool {
	return err != nil && !domain.IsBreakerOpen(err) && !IsTransient(err)
}
