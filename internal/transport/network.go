package transport

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the raw ESC/POS port used by network printers
const DefaultPort = 9100

// Network prints over a raw TCP socket
type Network struct {
	stream
	dialTimeout time.Duration
	cutReliable bool
	address     string
}

// NetworkOptions configures a Network transport
type NetworkOptions struct {
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// CutReliable is false for firmware that ignores cuts on the print socket
	CutReliable bool
}

// NewNetwork creates an unconnected network transport
func NewNetwork(opts NetworkOptions) *Network {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	n := &Network{dialTimeout: opts.DialTimeout, cutReliable: opts.CutReliable}
	n.writeTimeout = opts.WriteTimeout
	return n
}

// HostPort splits a "host" or "host:port" address, defaulting the port
func HostPort(address string) (string, int) {
	address = strings.TrimSpace(address)
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return strings.Trim(address, "[]"), DefaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		port = DefaultPort
	}
	return host, port
}

// JoinHostPort formats host and port as a dialable address
func JoinHostPort(host string, port int) string {
	if port <= 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func (n *Network) Kind() Kind { return KindNetwork }

func (n *Network) Init() error { return nil }

// Connect dials host[:port]
func (n *Network) Connect(ctx context.Context, address string) error {
	addr := JoinHostPort(HostPort(address))
	dialer := &net.Dialer{Timeout: n.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return connErr(addr, err)
	}
	n.attach(conn)
	n.address = addr
	return nil
}

func (n *Network) CutReliable() bool { return n.cutReliable }

// DirectAddress returns the host:port of the last Connect
func (n *Network) DirectAddress() string { return n.address }
