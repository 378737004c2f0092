package bgg

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for BoardGameGeek API operations.
var (
	ErrUpstream    = errors.New("bgg: upstream error")
	ErrRateLimited = errors.New("bgg: rate limited by server")
	ErrBadRequest  = errors.New("bgg: bad request")
	ErrParse       = errors.New("bgg: unparseable response")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // Operation: "things"
	IDs    []int
	Status int // HTTP status, zero when no response was received
	Err    error
}

func (e *Error) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = strconv.Itoa(id)
	}
	if e.Status != 0 {
		return fmt.Sprintf("bgg %s [%s] status %d: %v", e.Op, strings.Join(ids, ","), e.Status, e.Err)
	}
	return fmt.Sprintf("bgg %s [%s]: %v", e.Op, strings.Join(ids, ","), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op string, ids []int, status int, err error) error {
	return &Error{
		Op:     op,
		IDs:    ids,
		Status: status,
		Err:    err,
	}
}
