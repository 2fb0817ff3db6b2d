// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Package httpmsg implements the HTTP message model of spec.md §4.6:
// Request and Response each own a byte cache holding the on-wire
// representation, which Bytes rebuilds on demand from the message's
// fields. Method/url/headers are plain strings and the body is a slice of
// its own; none of them is a view into the cache. Grounded on
// original_source/include/server/http/http_request.h (cache + string_view
// fields, Set/SetHeader/Clear) and http_client.h's builder-method naming
// (MakeGetRequest, MakePostRequest, ...).
package httpmsg

import "strings"

// Header is one entry of an ordered header multimap — duplicate keys (e.g.
// repeated Set-Cookie) are preserved in insertion order, matching the
// original's std::multimap<string_view, string_view>.
type Header struct {
	Key   string
	Value string
}

// Headers is an ordered list of Header entries.
type Headers []Header

// Get returns the value of the first header matching key, compared
// case-insensitively per spec.md §4.6 ("comparing keys case-insensitively").
func (h Headers) Get(key string) (string, bool) {
	for _, kv := range h {
		if strings.EqualFold(kv.Key, key) {
			return kv.Value, true
		}
	}
	return "", false
}

// Add appends a header, preserving any existing entry with the same key
// (multimap semantics).
func (h *Headers) Add(key, value string) {
	*h = append(*h, Header{Key: key, Value: value})
}

// State is the incremental parser's state machine (spec.md §4.6 "Parsing
// state: {pending-header, pending-body, ready, error}").
type State int

const (
	StatePendingHeader State = iota
	StatePendingBody
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StatePendingHeader:
		return "pending-header"
	case StatePendingBody:
		return "pending-body"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

const defaultProtocol = "HTTP/1.1"

// maxHeaderSize bounds the unterminated header accumulation so a peer that
// never sends CRLFCRLF cannot grow the cache unboundedly.
const maxHeaderSize = 64 * 1024
