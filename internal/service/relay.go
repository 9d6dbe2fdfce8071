// Package service implements the HTTP-to-UDP relay logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"cot-udp-proxy/internal/allowlist"
	"cot-udp-proxy/internal/config"
	"cot-udp-proxy/internal/metrics"
	"cot-udp-proxy/internal/model"
)

// Destination headers read from the inbound request.
const (
	HeaderUDPHost = "X-UDP-Host"
	HeaderUDPPort = "X-UDP-Port"
)

var (
	// ErrHostNotAllowed is returned when the destination host does not match the allowlist.
	ErrHostNotAllowed = errors.New("udp destination not in allowlist")

	// ErrInvalidPort is returned when the destination port is 0.
	ErrInvalidPort = errors.New("invalid udp port")
)

// BodyReadError wraps a failure to read the inbound request body.
type BodyReadError struct {
	Err error
}

func (e *BodyReadError) Error() string {
	return fmt.Sprintf("read body: %v", e.Err)
}

func (e *BodyReadError) Unwrap() error {
	return e.Err
}

// Sender delivers one datagram to a host:port destination.
type Sender interface {
	Send(ctx context.Context, addr string, payload []byte) error
}

// RelayService validates relay requests and sends their bodies as UDP datagrams.
type RelayService struct {
	sender  Sender
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRelayService creates a RelayService.
// The metrics parameter is optional; pass nil to disable rejection metrics.
func NewRelayService(s Sender, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *RelayService {
	return &RelayService{
		sender:  s,
		cfg:     cfg,
		logger:  logger.With("component", "relay_service"),
		metrics: m,
	}
}

// Relay reads the request body and sends it unchanged as a single datagram.
//
// The destination comes from the X-UDP-Host and X-UDP-Port headers, falling
// back to the configured defaults. A port header that is not a valid uint16
// silently falls back to the default port. Host checks run before the body
// is read, so rejected requests never consume their payload.
func (s *RelayService) Relay(rr *model.RelayRequest) (*model.RelayResult, error) {
	host, port := s.resolveDestination(rr.Header)

	if !allowlist.IsAllowed(host, s.cfg.Relay.AllowedHosts) {
		s.logger.Warn("blocked UDP destination (not in allowlist)", "host", host)
		s.reject("host_not_allowed")
		return nil, ErrHostNotAllowed
	}

	if port < 1 {
		s.logger.Warn("invalid UDP port", "port", port)
		s.reject("invalid_port")
		return nil, ErrInvalidPort
	}

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		s.logger.Error("reading body", "err", err)
		return nil, &BodyReadError{Err: err}
	}

	dest := net.JoinHostPort(host, strconv.Itoa(int(port)))
	if err := s.sender.Send(rr.Ctx, dest, body); err != nil {
		s.logger.Error("UDP send failed", "destination", dest, "err", err)
		return nil, fmt.Errorf("relay to %s: %w", dest, err)
	}

	s.logger.Info("forwarded datagram", "destination", dest, "bytes", len(body))
	return &model.RelayResult{Destination: dest, Size: len(body)}, nil
}

// resolveDestination extracts host and port from the request headers.
func (s *RelayService) resolveDestination(header http.Header) (string, uint16) {
	host := header.Get(HeaderUDPHost)
	if _, ok := header[http.CanonicalHeaderKey(HeaderUDPHost)]; !ok {
		host = s.cfg.Relay.DefaultHost
	}

	port := uint16(s.cfg.Relay.DefaultPort)
	if v := header.Get(HeaderUDPPort); v != "" {
		// A single explicit plus sign is accepted: "+80" is port 80.
		if p, err := strconv.ParseUint(strings.TrimPrefix(v, "+"), 10, 16); err == nil {
			port = uint16(p)
		}
	}
	return host, port
}

func (s *RelayService) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RelaysRejected.WithLabelValues(reason).Inc()
	}
}
