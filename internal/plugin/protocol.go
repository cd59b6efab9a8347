// Package plugin implements the JSON-RPC protocol spoken by Wox-style launcher
// hosts: the host passes one JSON request as the first argument and reads a
// JSON response (or notification) from stdout.
package plugin

import (
	"encoding/json"
	"fmt"
	"io"
)

// Request is what the host passes on the command line.
type Request struct {
	Method     string            `json:"method"`
	Parameters []json.RawMessage `json:"parameters"`
}

// RPCAction is the action descriptor attached to a result item.
type RPCAction struct {
	Method              string   `json:"method"`
	Parameters          []string `json:"parameters"`
	DontHideAfterAction bool     `json:"dontHideAfterAction"`
}

// Item is one result row shown by the host.
type Item struct {
	Title         string    `json:"Title"`
	SubTitle      string    `json:"SubTitle"`
	IcoPath       string    `json:"IcoPath"`
	JsonRPCAction RPCAction `json:"JsonRPCAction"`
}

// Response answers a query request.
type Response struct {
	Result []Item `json:"result"`
}

// ParseRequest decodes the host's JSON argument.
func ParseRequest(arg string) (Request, error) {
	var req Request
	if err := json.Unmarshal([]byte(arg), &req); err != nil {
		return Request{}, fmt.Errorf("invalid request JSON: %w", err)
	}
	if req.Method == "" {
		return Request{}, fmt.Errorf("invalid request: empty method")
	}
	return req, nil
}

// QueryText returns the first parameter of a query request ("" when absent).
func (r Request) QueryText() (string, error) {
	if len(r.Parameters) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(r.Parameters[0], &s); err != nil {
		return "", fmt.Errorf("%w: query text must be a string", ErrBadParameters)
	}
	return s, nil
}

// WriteResponse writes items as a query response.
func WriteResponse(w io.Writer, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	return json.NewEncoder(w).Encode(Response{Result: items})
}

// Messenger sends host notifications.
type Messenger struct {
	W    io.Writer
	Icon string
}

// ShowMsg asks the host to display a toast with title and subtitle.
func (m *Messenger) ShowMsg(title, subtitle string) error {
	msg := struct {
		Method     string   `json:"method"`
		Parameters []string `json:"parameters"`
	}{
		Method:     "Wox.ShowMsg",
		Parameters: []string{title, subtitle, m.Icon},
	}
	return json.NewEncoder(m.W).Encode(msg)
}
