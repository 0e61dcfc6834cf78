package client

import (
	"fmt"
)

type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpDecode Op = "decode"
)

var ErrClientNotReady = fmt.Errorf("client is not ready")

// RetrievalError reports a failed storage operation on one key or prefix.
type RetrievalError struct {
	Op  Op
	Key string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}
