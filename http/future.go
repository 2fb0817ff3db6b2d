// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// FutureClient implements spec.md §4.6's "Extended client (future-
// returning)": a one-shot outstanding-request pattern built atop a Client
// and a reactor.Timer for the timeout path. Grounded on
// original_source/include/server/http/http_client.h's ex-client (its
// callback-continuation "send then await" shape), mapped onto Go's native
// async idiom per spec.md §9's "Async completion" Design Note: a
// channel-delivered result instead of a captured-functor future.

package http

import (
	"errors"
	"sync"
	"time"

	"github.com/solidcore/netcore/httpmsg"
	"github.com/solidcore/netcore/reactor"
)

// Result is the outcome of one FutureClient.SendRequest call.
type Result struct {
	Response *httpmsg.Response
	Err      error
}

// Future resolves exactly once, either with a response or an error.
type Future struct {
	ch chan Result
}

// Wait blocks until the request resolves.
func (f *Future) Wait() Result { return <-f.ch }

// Done returns a channel that receives the single Result when ready,
// suitable for use in a select statement.
func (f *Future) Done() <-chan Result { return f.ch }

// ErrRequestInFlight is the Result.Err of the Future SendRequest returns
// when a prior request on the same FutureClient has not yet resolved; concurrent issuance on one
// instance is the caller's responsibility to avoid (spec.md §4.6).
var ErrRequestInFlight = errors.New("http: request already in flight on this client")

// ErrRequestTimeout is the Result.Err delivered when the timeout elapses
// before a response arrives.
var ErrRequestTimeout = errors.New("http: request timed out")

// FutureClient wraps a Client with the connect-send-await-timeout sequence
// spec.md describes, resolving one Future per SendRequest call.
type FutureClient struct {
	client *Client
	timer  *reactor.Timer

	mu      sync.Mutex
	pending chan Result
}

// NewFutureClient wraps client, intercepting its response handlers to
// drive the pending Future while still invoking any handlers the caller
// had already installed.
func NewFutureClient(client *Client) *FutureClient {
	fc := &FutureClient{client: client}
	fc.timer = reactor.NewTimer(client.Conn.Reactor(), fc.onTimeout)

	orig := client.Handlers
	client.Handlers.OnReceivedResponse = func(c *Client, resp *httpmsg.Response) {
		fc.resolve(Result{Response: resp})
		if orig.OnReceivedResponse != nil {
			orig.OnReceivedResponse(c, resp)
		}
	}
	client.Handlers.OnReceivedResponseError = func(c *Client, resp *httpmsg.Response, message string) {
		fc.resolve(Result{Err: errors.New(message)})
		if orig.OnReceivedResponseError != nil {
			orig.OnReceivedResponseError(c, resp, message)
		}
	}
	return fc
}

// SendRequest connects (asynchronously), sends req once connected, and
// resolves the returned Future with the matching response, a connect/send
// error, or ErrRequestTimeout once timeout elapses — whichever happens
// first. If a prior request has not yet resolved, the returned Future is
// already resolved with ErrRequestInFlight.
func (fc *FutureClient) SendRequest(req *httpmsg.Request, timeout time.Duration) *Future {
	fc.mu.Lock()
	if fc.pending != nil {
		fc.mu.Unlock()
		ch := make(chan Result, 1)
		ch <- Result{Err: ErrRequestInFlight}
		return &Future{ch: ch}
	}
	ch := make(chan Result, 1)
	fc.pending = ch
	fc.mu.Unlock()

	fc.timer.SetupAfter(timeout)
	fc.timer.WaitAsync()

	fc.client.ConnectAsync(func(err error) {
		if err != nil {
			fc.resolve(Result{Err: err})
			return
		}
		if err := fc.client.SendRequest(req); err != nil {
			fc.resolve(Result{Err: err})
		}
	})

	return &Future{ch: ch}
}

func (fc *FutureClient) onTimeout(canceled bool) {
	if canceled {
		return
	}
	fc.client.Conn.Disconnect()
	fc.resolve(Result{Err: ErrRequestTimeout})
}

// resolve delivers r to the currently pending Future, if any, and cancels
// the timeout timer. Safe to call more than once per request; only the
// first call after a SendRequest wins.
func (fc *FutureClient) resolve(r Result) {
	fc.mu.Lock()
	ch := fc.pending
	fc.pending = nil
	fc.mu.Unlock()
	if ch == nil {
		return
	}
	fc.timer.Cancel()
	ch <- r
}
