// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package httpmsg

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Response is an HTTP response, either under construction (via the Make*
// builders) or being incrementally parsed.
type Response struct {
	Protocol   string
	StatusCode int
	StatusText string
	Headers    Headers
	Body       []byte

	cache []byte
	dirty bool

	state              State
	contentLengthKnown bool
	contentLength      int
	err                error
}

// NewResponse returns an empty, unparsed, unbuilt Response.
func NewResponse() *Response { return &Response{Protocol: defaultProtocol} }

// Clear resets the response to its zero value.
func (r *Response) Clear() { *r = Response{Protocol: defaultProtocol} }

// set assembles a status line, clearing any previously accumulated headers
// and body. A statusCode of 0 resolves to 200, per spec.md §4.6's explicit
// resolution for builder methods that take a status code.
func (r *Response) set(statusCode int, body []byte) *Response {
	if statusCode == 0 {
		statusCode = http.StatusOK
	}
	r.Protocol = defaultProtocol
	r.StatusCode = statusCode
	r.StatusText = http.StatusText(statusCode)
	r.Headers = nil
	r.Body = body
	r.dirty = true
	r.state = StateReady
	r.SetHeader("Content-Length", strconv.Itoa(len(body)))
	return r
}

// SetHeader appends a response header.
func (r *Response) SetHeader(key, value string) *Response {
	r.Headers.Add(key, value)
	r.dirty = true
	return r
}

// MakeOKResponse builds a plain status-only response (status defaults to
// 200 when 0 is passed).
func (r *Response) MakeOKResponse(status int) *Response { return r.set(status, nil) }

// MakeHeadResponse builds a status-only response with no body, mirroring
// the semantics of a HEAD request's response.
func (r *Response) MakeHeadResponse(status int) *Response { return r.set(status, nil) }

// MakeGetResponse builds a 200 response carrying body.
func (r *Response) MakeGetResponse(body []byte) *Response { return r.set(http.StatusOK, body) }

// MakeErrorResponse builds an error response carrying msg as the body; the
// status defaults to 500 when 0 is passed.
func (r *Response) MakeErrorResponse(msg string, status int) *Response {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return r.set(status, []byte(msg))
}

// MakeOptionsResponse builds a 200 OPTIONS response advertising the given
// allowed methods via the Allow header.
func (r *Response) MakeOptionsResponse(allow string) *Response {
	r.set(http.StatusOK, nil)
	if allow != "" {
		r.SetHeader("Allow", allow)
	}
	return r
}

// MakeTraceResponse builds a 200 response that echoes requestCache back as
// the body with content-type message/http, per RFC 7231's TRACE semantics.
func (r *Response) MakeTraceResponse(requestCache []byte) *Response {
	r.set(http.StatusOK, requestCache)
	r.SetHeader("Content-Type", "message/http")
	return r
}

// MakeCachedFileResponse builds a 200 response framed for the static file
// cache (spec.md §4.6 "Static file cache"): body plus content-type and a
// Cache-Control max-age derived from ttl.
func (r *Response) MakeCachedFileResponse(body []byte, contentType string, ttl time.Duration) *Response {
	r.set(http.StatusOK, body)
	if contentType != "" {
		r.SetHeader("Content-Type", contentType)
	}
	r.SetHeader("Cache-Control", fmt.Sprintf("max-age=%d", int(ttl.Seconds())))
	return r
}

// Bytes rebuilds (if dirty) and returns the full on-wire encoding.
func (r *Response) Bytes() []byte {
	if !r.dirty && r.cache != nil {
		return r.cache
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %d %s\r\n", nonEmpty(r.Protocol), r.StatusCode, r.StatusText)
	for _, h := range r.Headers {
		fmt.Fprintf(&buf, "%s: %s\r\n", h.Key, h.Value)
	}
	buf.WriteString("\r\n")
	buf.Write(r.Body)
	r.cache = buf.Bytes()
	r.dirty = false
	return r.cache
}

// State returns the incremental parser's current state.
func (r *Response) State() State { return r.state }

// Err returns the parser error, if State() == StateError.
func (r *Response) Err() error { return r.err }

// ErrMalformedStatusLine is returned when the first line of a response
// cannot be parsed as "PROTOCOL STATUS TEXT".
var ErrMalformedStatusLine = errors.New("httpmsg: malformed status line")

// ReceiveHeader mirrors Request.ReceiveHeader for the response side.
func (r *Response) ReceiveHeader(p []byte) error {
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

// ReceiveBody mirrors Request.ReceiveBody for the response side.
func (r *Response) ReceiveBody(p []byte) error {
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

// FinishBody marks the response ready using whatever body bytes have been
// accumulated so far (connection-terminated body, Content-Length not yet
// satisfied). A response without Content-Length is ready at the end of its
// header with an empty body; bytes after its header are not collected.
func (r *Response) FinishBody() {
	if r.state == StatePendingBody {
		r.state = StateReady
	}
}

func (r *Response) parseHeaderBlock(block []byte) error {
	lines := strings.Split(string(block), "\r\n")
	if len(lines) == 0 {
		return ErrMalformedStatusLine
	}
	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) < 2 {
		return ErrMalformedStatusLine
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return ErrMalformedStatusLine
	}
	r.Protocol = parts[0]
	r.StatusCode = code
	if len(parts) == 3 {
		r.StatusText = parts[2]
	}
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
