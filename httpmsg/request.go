// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpmsg

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Request is an HTTP request, either under construction (via the Make*
// builders) or being incrementally parsed (via ReceiveHeader/ReceiveBody).
type Request struct {
	Method   string
	URL      string
	Protocol string
	Headers  Headers
	Body     []byte

	cache []byte // lazily rebuilt wire-format encoding, see Bytes()
	dirty bool

	state              State
	contentLengthKnown bool
	contentLength      int
	err                error
}

// NewRequest returns an empty, unparsed, unbuilt Request.
func NewRequest() *Request { return &Request{Protocol: defaultProtocol} }

// Clear resets the request to its zero value, ready for reuse.
func (r *Request) Clear() {
	*r = Request{Protocol: defaultProtocol}
}

// Set assembles a request line with the given method, url, and protocol
// (defaulting to HTTP/1.1), clearing any previously accumulated headers,
// body, or parser state.
func (r *Request) Set(method, url, protocol string) *Request {
	if protocol == "" {
		protocol = defaultProtocol
	}
	r.Method, r.URL, r.Protocol = method, url, protocol
	r.Headers = nil
	r.Body = nil
	r.dirty = true
	r.state = StateReady
	return r
}

// SetHeader appends a request header.
func (r *Request) SetHeader(key, value string) *Request {
	r.Headers.Add(key, value)
	r.dirty = true
	return r
}

// SetBody installs a request body and, unless already present, a matching
// Content-Length header.
func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	if _, ok := r.Headers.Get("Content-Length"); !ok {
		r.SetHeader("Content-Length", strconv.Itoa(len(body)))
	}
	r.dirty = true
	return r
}

// MakeHeadRequest builds a HEAD request for url.
func (r *Request) MakeHeadRequest(url string) *Request { return r.Set("HEAD", url, "") }

// MakeGetRequest builds a GET request for url.
func (r *Request) MakeGetRequest(url string) *Request { return r.Set("GET", url, "") }

// MakePostRequest builds a POST request carrying body.
func (r *Request) MakePostRequest(url string, body []byte) *Request {
	return r.Set("POST", url, "").SetBody(body)
}

// MakePutRequest builds a PUT request carrying body.
func (r *Request) MakePutRequest(url string, body []byte) *Request {
	return r.Set("PUT", url, "").SetBody(body)
}

// MakeDeleteRequest builds a DELETE request for url.
func (r *Request) MakeDeleteRequest(url string) *Request { return r.Set("DELETE", url, "") }

// MakeOptionsRequest builds an OPTIONS request for url.
func (r *Request) MakeOptionsRequest(url string) *Request { return r.Set("OPTIONS", url, "") }

// MakeTraceRequest builds a TRACE request for url.
func (r *Request) MakeTraceRequest(url string) *Request { return r.Set("TRACE", url, "") }

// Bytes rebuilds (if dirty) and returns the full on-wire encoding of the
// request as currently set.
func (r *Request) Bytes() []byte {
	if !r.dirty && r.cache != nil {
		return r.cache
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s %s\r\n", r.Method, r.URL, nonEmpty(r.Protocol))
	for _, h := range r.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Key, h.Value)
	}
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	r.cache = buf.Bytes()
	r.dirty = false
	return r.cache
}

func nonEmpty(s string) string {
	if s == "" {
		return defaultProtocol
	}
	return s
}

// State returns the incremental parser's current state.
func (r *Request) State() State { return r.state }

// Err returns the parser error, if State() == StateError.
func (r *Request) Err() error { return r.err }

// ErrHeaderTooLarge is returned by ReceiveHeader when the header block
// exceeds maxHeaderSize without a terminator being found.
var ErrHeaderTooLarge = errors.New("httpmsg: request header too large")

// ErrMalformedRequestLine is returned when the first line of a request
// cannot be parsed as "METHOD URL PROTOCOL".
var ErrMalformedRequestLine = errors.New("httpmsg: malformed request line")

// ReceiveHeader feeds newly received bytes into the parser. It appends p to
// the internal cache and, once a CRLFCRLF terminator is found, parses the
// request line and headers, determines Content-Length if present, and
// transitions to StatePendingBody (body expected) or StateReady (no body
// expected). Safe to call repeatedly with each incoming chunk while still
// StatePendingHeader.
func (r *Request) ReceiveHeader(p []byte) error {
	if r.state != StatePendingHeader {
		return nil
	}
	r.cache = append(r.cache, p...)
	idx := bytes.Index(r.cache, []byte("\r\n\r\n"))
	if idx < 0 {
		if len(r.cache) > maxHeaderSize {
			r.state = StateError
			r.err = ErrHeaderTooLarge
			return r.err
		}
		r.state = StatePendingHeader
		return nil
	}

	if err := r.parseHeaderBlock(r.cache[:idx]); err != nil {
		r.state = StateError
		r.err = err
		return err
	}

	bodySoFar := append([]byte(nil), r.cache[idx+4:]...)
	r.Body = nil
	r.cache = r.cache[:idx+4]
	r.dirty = true

	if cl, ok := r.Headers.Get("Content-Length"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			r.state = StateError
			r.err = fmt.Errorf("httpmsg: invalid Content-Length %q", cl)
			return r.err
		}
		r.contentLengthKnown = true
		r.contentLength = n
	}

	if !r.contentLengthKnown || r.contentLength == 0 {
		r.state = StateReady
		return nil
	}
	r.state = StatePendingBody
	if len(bodySoFar) > 0 {
		return r.ReceiveBody(bodySoFar)
	}
	return nil
}

// ReceiveBody feeds newly received bytes to the body accumulator. Once
// Content-Length bytes have been collected, the parser transitions to
// StateReady.
func (r *Request) ReceiveBody(p []byte) error {
	if r.state != StatePendingBody {
		return nil
	}
	r.Body = append(r.Body, p...)
	if len(r.Body) >= r.contentLength {
		r.Body = r.Body[:r.contentLength]
		r.state = StateReady
	}
	return nil
}

// FinishBody marks the request ready using whatever body bytes have been
// accumulated so far, for the "connection-terminated body" case of spec.md
// §4.6 where the peer closes before Content-Length bytes have arrived. A
// request without Content-Length is already ready at the end of its header.
func (r *Request) FinishBody() {
	if r.state == StatePendingBody {
		r.state = StateReady
	}
}

func (r *Request) parseHeaderBlock(block []byte) error {
	lines := strings.Split(string(block), "\r\n")
	if len(lines) == 0 {
		return ErrMalformedRequestLine
	}
	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) != 3 {
		return ErrMalformedRequestLine
	}
	r.Method, r.URL, r.Protocol = parts[0], parts[1], parts[2]
	r.Headers = nil
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		key := line[:colon]
		value := strings.TrimSpace(line[colon+1:])
		r.Headers.Add(key, value)
	}
	return nil
}
