// Copyright © 2024 The ELPS authors

// Package chain assembles linked exceptions into an ordered
// traceback.Chain.
package chain

import (
	"errors"

	"github.com/luthersystems/prettytb/traceback"
)

// MaxLinks bounds the number of links Assemble follows. The interpreter
// never links an exception to itself, so a longer walk means the links
// form a cycle.
const MaxLinks = 1000

// ErrChainTooLong is returned when a chain has more than MaxLinks links.
var ErrChainTooLong = errors.New("exception chain exceeds maximum length")

// Exception is a raised exception with links to the exceptions that led to
// it. Cause is the exception it was explicitly raised from, Context the
// exception being handled when it was raised.
type Exception interface {
	TypeName() string
	Message() string
	Frames() []traceback.Frame
	Cause() Exception
	Context() Exception
}

// ContextSuppressor is implemented by exceptions raised "from None", whose
// context is not displayed.
type ContextSuppressor interface {
	SuppressContext() bool
}

// Assemble walks from the leaf exception to the root cause, following the
// cause link when present and the context link otherwise, and returns the
// records ordered oldest first.
func Assemble(leaf Exception) (traceback.Chain, error) {
	var newestFirst traceback.Chain
	for cur := leaf; !isNil(cur); {
		if len(newestFirst) == MaxLinks {
			return nil, ErrChainTooLong
		}
		cause := cur.Cause()
		context := cur.Context()
		if s, ok := cur.(ContextSuppressor); ok && s.SuppressContext() {
			context = nil
		}
		hasCause := !isNil(cause)
		hasContext := !hasCause && !isNil(context)
		newestFirst = append(newestFirst, traceback.Record{
			Name:    cur.TypeName(),
			Message: cur.Message(),
			Frames:  append([]traceback.Frame(nil), cur.Frames()...),
			Caused:  hasCause,
			Context: hasContext,
		})
		switch {
		case hasCause:
			cur = cause
		case hasContext:
			cur = context
		default:
			cur = nil
		}
	}
	chain := make(traceback.Chain, len(newestFirst))
	for i := range newestFirst {
		chain[len(newestFirst)-1-i] = newestFirst[i]
	}
	return chain, nil
}

// isNil catches typed nil pointers stored in an Exception.
func isNil(e Exception) bool {
	if e == nil {
		return true
	}
	if n, ok := e.(*Node); ok {
		return n == nil
	}
	return false
}
