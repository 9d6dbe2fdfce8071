// Package client provides the outbound UDP sender.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"time"

	"cot-udp-proxy/internal/metrics"
)

// Send stages reported in SendError.Op.
const (
	OpSocket = "socket"
	OpSend   = "send"
)

// SendError reports which stage of a datagram send failed.
type SendError struct {
	Op  string
	Err error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("udp %s: %v", e.Op, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// UDPClient sends single datagrams from ephemeral sockets.
// Every Send binds a fresh socket on an OS-assigned port and closes it
// afterwards; nothing is pooled or retried.
type UDPClient struct {
	listen  net.ListenConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewUDPClient creates a UDPClient.
// The metrics parameter is optional; pass nil to disable send metrics.
func NewUDPClient(logger *slog.Logger, m *metrics.Metrics) *UDPClient {
	return &UDPClient{
		logger:  logger.With("component", "udp_client"),
		metrics: m,
	}
}

// Send writes payload as one datagram to addr (host:port).
// The context bounds socket creation and name resolution only; the write
// itself is fire-and-forget.
func (c *UDPClient) Send(ctx context.Context, addr string, payload []byte) error {
	start := time.Now()
	err := c.send(ctx, addr, payload)

	if c.metrics != nil {
		c.metrics.SendDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			var se *SendError
			if errors.As(err, &se) {
				c.metrics.SendErrors.WithLabelValues(se.Op).Inc()
			}
		} else {
			c.metrics.DatagramsSent.Inc()
			c.metrics.BytesSent.Add(float64(len(payload)))
		}
	}
	return err
}

func (c *UDPClient) send(ctx context.Context, addr string, payload []byte) error {
	conn, err := c.listen.ListenPacket(ctx, "udp", ":0")
	if err != nil {
		return &SendError{Op: OpSocket, Err: err}
	}
	defer func() { _ = conn.Close() }()

	dst, err := resolve(ctx, addr)
	if err != nil {
		return &SendError{Op: OpSend, Err: err}
	}

	c.logger.Debug("sending datagram",
		"local", conn.LocalAddr().String(),
		"remote", dst.String(),
		"bytes", len(payload),
	)

	if _, err := conn.WriteTo(payload, dst); err != nil {
		return &SendError{Op: OpSend, Err: err}
	}
	return nil
}

// resolve turns host:port into a UDP address, looking the host up when it
// is not a literal IP.
func resolve(ctx context.Context, addr string) (*net.UDPAddr, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true}
	}
	pn, err := net.DefaultResolver.LookupPort(ctx, "udp", port)
	if err != nil {
		return nil, err
	}
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(ips[0].Unmap(), uint16(pn))), nil
}
