package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/ipv4"
)

const (
	// MulticastAddr is the SSDP multicast group and port.
	MulticastAddr = "239.255.255.250:1900"

	DefaultTimeout = 5 * time.Second
	DefaultRetries = 5

	multicastTTL    = 2
	searchMX        = 3
	maxDatagramSize = 1024
)

// Client runs SSDP searches.
type Client struct {
	// Addr is where M-SEARCH datagrams are sent. Defaults to MulticastAddr.
	Addr string
	// Timeout bounds every individual read within an attempt.
	Timeout time.Duration
	// Retries is the maximum number of attempts. Zero sends nothing, a
	// negative value means DefaultRetries.
	Retries int
}

// NewClient creates a client with the default group, timeout and retries.
func NewClient() *Client {
	return &Client{
		Addr:    MulticastAddr,
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
	}
}

// SearchRequest renders the M-SEARCH datagram for a search target.
func SearchRequest(searchTarget string) []byte {
	return []byte(fmt.Sprintf("M-SEARCH * HTTP/1.1\r\n"+
		"HOST: %s\r\n"+
		"MAN: \"ssdp:discover\"\r\n"+
		"ST: %s\r\n"+
		"MX: %d\r\n\r\n", MulticastAddr, searchTarget, searchMX))
}

// Discover sends M-SEARCH requests for searchTarget and returns every distinct
// responder, keyed by location. Attempts run one after another, each on a fresh
// socket, and stop after the first attempt that yields at least one response.
// An empty result is not an error. The context is only consulted between
// attempts.
func (c *Client) Discover(ctx context.Context, searchTarget string) ([]Response, error) {
	addr := c.Addr
	if addr == "" {
		addr = MulticastAddr
	}
	dst, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", addr, err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := c.Retries
	if retries < 0 {
		retries = DefaultRetries
	}

	request := SearchRequest(searchTarget)
	found := newCollector()

	for attempt := 1; attempt <= retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return found.result(), err
		}

		log.Debug().
			Str("st", searchTarget).
			Int("attempt", attempt).
			Dur("timeout", timeout).
			Msg("Sending SSDP search")

		if err := c.attempt(ctx, dst, request, timeout, found); err != nil {
			return nil, err
		}
		if found.len() > 0 {
			break
		}
	}

	log.Debug().Str("st", searchTarget).Int("found", found.len()).Msg("SSDP discovery finished")
	return found.result(), nil
}

// attempt sends one search on its own socket and reads until a read times out.
func (c *Client) attempt(ctx context.Context, dst *net.UDPAddr, request []byte, timeout time.Duration, found *collector) (err error) {
	conn, err := listen(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close SSDP socket: %w", cerr)
		}
	}()

	if _, err := conn.WriteTo(request, dst); err != nil {
		return fmt.Errorf("failed to send SSDP search: %w", err)
	}

	buf := make([]byte, maxDatagramSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				return nil
			}
			return fmt.Errorf("failed to read SSDP response: %w", err)
		}

		resp, err := ParseResponse(buf[:n])
		if err != nil {
			log.Debug().Err(err).Stringer("from", from).Msg("Dropping malformed SSDP datagram")
			continue
		}
		if found.add(resp) {
			log.Debug().
				Str("location", resp.Location).
				Str("usn", resp.USN).
				Stringer("from", from).
				Msg("SSDP response")
		}
	}
}

// listen opens a UDP socket with address reuse and a multicast TTL of 2.
func listen(ctx context.Context) (net.PacketConn, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	conn, err := lc.ListenPacket(ctx, "udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("failed to open SSDP socket: %w", err)
	}

	if err := ipv4.NewPacketConn(conn).SetMulticastTTL(multicastTTL); err != nil {
		_ = conn.Close() // Error ignored: the TTL failure is what gets reported
		return nil, fmt.Errorf("failed to set multicast TTL: %w", err)
	}
	return conn, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
