// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// RelayRequest carries one inbound POST to be sent as a UDP datagram.
type RelayRequest struct {
	Ctx    context.Context
	Header http.Header
	Body   io.Reader
}

// RelayResult describes a datagram that was handed to the OS.
type RelayResult struct {
	Destination string
	Size        int
}
