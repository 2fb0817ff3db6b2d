// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

// Package httpmsg implements the HTTP request/response message model and
// incremental parser of spec.md §4.6.
package httpmsg
