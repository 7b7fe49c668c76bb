package rpcutil

import (
	"context"
	"errors"

	"connectrpc.com/connect"
)

// Mapping pairs a sentinel error with the Connect code it surfaces as.
type Mapping struct {
	Err  error
	Code connect.Code
}

// ToConnectError wraps err with the code of the first matching mapping.
// Unmatched errors are internal.
func ToConnectError(err error, mappings ...Mapping) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}
	for _, m := range mappings {
		if errors.Is(err, m.Err) {
			return connect.NewError(m.Code, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}
