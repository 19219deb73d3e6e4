package network

import (
	"log/slog"
	"net"
	"time"

	"github.com/amirasaad/fxconvert/pkg/provider"
)

// DialProbe reports the network as available when a TCP connection to addr
// can be opened within timeout.
type DialProbe struct {
	addr    string
	timeout time.Duration
	dial    func(network, address string, timeout time.Duration) (net.Conn, error)
	logger  *slog.Logger
}

// NewDialProbe creates a probe against addr, e.g. "openexchangerates.org:443".
func NewDialProbe(addr string, timeout time.Duration, logger *slog.Logger) *DialProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &DialProbe{
		addr:    addr,
		timeout: timeout,
		dial:    net.DialTimeout,
		logger:  logger.With("component", "connectivity"),
	}
}

// IsAvailable implements provider.Connectivity.
func (p *DialProbe) IsAvailable() bool {
	conn, err := p.dial("tcp", p.addr, p.timeout)
	if err != nil {
		p.logger.Debug("Connectivity probe failed", "addr", p.addr, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}

// Static always reports the same availability.
type Static bool

// IsAvailable implements provider.Connectivity.
func (s Static) IsAvailable() bool { return bool(s) }

var (
	_ provider.Connectivity = (*DialProbe)(nil)
	_ provider.Connectivity = Static(true)
)
