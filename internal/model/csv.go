// Package model defines shared types for the CSV proxy.
package model

import (
	"io"
	"net/http"
)

// UpstreamResponse is the raw result of the GET against the data source.
type UpstreamResponse struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       io.ReadCloser
}

// OK reports whether the upstream status is in the 2xx range.
func (r *UpstreamResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

// Reply is the response handed back to the hosting runtime. A nil Header
// means no headers are set at all, Content-Type included.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}
