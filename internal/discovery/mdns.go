package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/rs/zerolog/log"
)

// HueService is the mDNS service type advertised by Hue bridges.
const HueService = "_hue._tcp"

// MDNS discovers bridges over multicast DNS. Entries are reported with the
// same shape as SSDP responses so callers can use either.
type MDNS struct {
	Service string
	Timeout time.Duration
}

// NewMDNS creates an mDNS discoverer for Hue bridges.
func NewMDNS(timeout time.Duration) *MDNS {
	return &MDNS{Service: HueService, Timeout: timeout}
}

// Discover queries the network once. searchTarget is carried through to the
// ST field of every result.
func (m *MDNS) Discover(ctx context.Context, searchTarget string) ([]Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	service := m.Service
	if service == "" {
		service = HueService
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	found := newCollector()
	var mu sync.Mutex
	var wg sync.WaitGroup

	entriesCh := make(chan *mdns.ServiceEntry, 10)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entriesCh {
			resp, ok := entryToResponse(entry, searchTarget)
			if !ok {
				continue
			}
			mu.Lock()
			found.add(resp)
			mu.Unlock()
		}
	}()

	params := mdns.DefaultParams(service)
	params.Entries = entriesCh
	params.Timeout = timeout
	params.DisableIPv6 = true

	log.Debug().Str("service", service).Dur("timeout", timeout).Msg("Sending mDNS query")

	err := mdns.Query(params)
	close(entriesCh)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("mDNS query failed: %w", err)
	}
	return found.result(), nil
}

// entryToResponse maps an mDNS entry to a bridge description location. The
// v1 API is served over plain HTTP on port 80 regardless of the advertised port.
func entryToResponse(entry *mdns.ServiceEntry, searchTarget string) (Response, bool) {
	if entry == nil || entry.AddrV4 == nil {
		return Response{}, false
	}

	resp := Response{
		Location: fmt.Sprintf("http://%s:80/description.xml", entry.AddrV4.String()),
		ST:       searchTarget,
	}
	for _, txt := range entry.InfoFields {
		if id, ok := strings.CutPrefix(txt, "bridgeid="); ok {
			resp.USN = "uuid:" + strings.ToLower(id)
		}
	}
	if resp.USN == "" {
		resp.USN = strings.TrimSuffix(entry.Name, ".")
	}
	return resp, true
}
