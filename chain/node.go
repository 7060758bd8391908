// Copyright © 2024 The ELPS authors

package chain

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/luthersystems/prettytb/traceback"
)

// Node is a captured exception in JSON form, as written by a capture hook
// running inside the interpreter.
type Node struct {
	Name        string            `json:"name"`
	Msg         string            `json:"message"`
	Stack       []traceback.Frame `json:"frames"`
	CauseNode   *Node             `json:"cause,omitempty"`
	ContextNode *Node             `json:"context,omitempty"`
	SuppressCtx bool              `json:"suppress_context,omitempty"`
}

var (
	_ Exception         = (*Node)(nil)
	_ ContextSuppressor = (*Node)(nil)
)

func (n *Node) TypeName() string          { return n.Name }
func (n *Node) Message() string           { return n.Msg }
func (n *Node) Frames() []traceback.Frame { return n.Stack }
func (n *Node) SuppressContext() bool     { return n.SuppressCtx }

func (n *Node) Cause() Exception {
	if n.CauseNode == nil {
		return nil
	}
	return n.CauseNode
}

func (n *Node) Context() Exception {
	if n.ContextNode == nil {
		return nil
	}
	return n.ContextNode
}

// DecodeNode reads a JSON encoded Node from r.
func DecodeNode(r io.Reader) (*Node, error) {
	var n Node
	if err := json.NewDecoder(r).Decode(&n); err != nil {
		return nil, fmt.Errorf("decoding exception: %w", err)
	}
	return &n, nil
}
