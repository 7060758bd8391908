// Copyright © 2024 The ELPS authors

// Package traceback defines the record format shared by the renderer, the
// chain assembler and the reverse parser.
package traceback

import (
	"errors"
	"fmt"
)

// Literal header lines of the traceback text format.
const (
	AliasesHead   = "Aliases for entries in sys.path:"
	TracebackHead = "Traceback (most recent call last):"
	CauseHead     = "The above exception was the direct cause of the following exception:"
	ContextHead   = "During handling of the above exception, another exception occurred:"
)

// UnknownCall is written in place of an empty call by the compact row
// style, where a missing call column would be read back as the call.
const UnknownCall = "?"

// Frame is one stack location.
type Frame struct {
	Module string `json:"module"`  // file path or pseudo path such as "<string>"
	Call   string `json:"call"`    // function or method name
	Lineno string `json:"lineno"`  // decimal line number
	SrcCtx string `json:"src_ctx"` // source line, may be empty
}

// Record is one exception of a chain. Caused reports that the record was
// raised from the record preceding it in the chain, Context that it was
// raised while handling it.
type Record struct {
	Name    string  `json:"name"`
	Message string  `json:"message"`
	Frames  []Frame `json:"frames"`
	Caused  bool    `json:"is_caused"`
	Context bool    `json:"is_context"`
}

// ErrorLine returns the final line of a rendered block.
func (r *Record) ErrorLine() string {
	if r.Message == "" {
		return r.Name
	}
	return r.Name + ": " + r.Message
}

// Chain is a sequence of linked exceptions, oldest cause first.
type Chain []Record

// Leaf returns the most recently raised record or nil for an empty chain.
func (c Chain) Leaf() *Record {
	if len(c) == 0 {
		return nil
	}
	return &c[len(c)-1]
}

// ErrBothLinks is returned by Validate for a record flagged as both caused
// and context.
var ErrBothLinks = errors.New("record is flagged as both caused and context")

// LinkError reports a chain record whose link flags are inconsistent.
type LinkError struct {
	Index int
	Name  string
	Err   error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// Validate checks the link flags of every record.
func (c Chain) Validate() error {
	for i := range c {
		r := &c[i]
		if r.Caused && r.Context {
			return &LinkError{Index: i, Name: r.Name, Err: ErrBothLinks}
		}
		if i == 0 && (r.Caused || r.Context) {
			return &LinkError{Index: i, Name: r.Name, Err: errors.New("root record has a predecessor link")}
		}
	}
	return nil
}
