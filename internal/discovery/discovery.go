// Package discovery locates services on the local network, primarily over
// SSDP (UDP multicast M-SEARCH) with an mDNS alternative for Hue bridges.
package discovery

import (
	"context"
	"fmt"
	"net/url"
)

// Response is a single service advertisement.
type Response struct {
	// Location of the service description, e.g. http://192.168.1.2:80/description.xml
	Location string
	// Unique service name
	USN string
	// Search target the responder answered for
	ST string
	// Cache lifetime in seconds (0 if not advertised)
	MaxAge int
}

// URL parses the advertised location.
func (r Response) URL() (*url.URL, error) {
	u, err := url.Parse(r.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", r.Location, err)
	}
	return u, nil
}

// Discoverer finds services answering the given search target.
type Discoverer interface {
	Discover(ctx context.Context, searchTarget string) ([]Response, error)
}

// Compile-time checks
var (
	_ Discoverer = (*Client)(nil)
	_ Discoverer = (*MDNS)(nil)
)

// collector accumulates responses, keeping one entry per location in
// first-seen order.
type collector struct {
	seen      map[string]struct{}
	responses []Response
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{})}
}

// add records r and reports whether its location was new.
func (c *collector) add(r Response) bool {
	if _, ok := c.seen[r.Location]; ok {
		return false
	}
	c.seen[r.Location] = struct{}{}
	c.responses = append(c.responses, r)
	return true
}

func (c *collector) len() int {
	return len(c.responses)
}

// result never returns nil so callers can range and len() freely.
func (c *collector) result() []Response {
	if c.responses == nil {
		return []Response{}
	}
	return c.responses
}
