package api

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/angristan/bulby/internal/discovery"
)

// DefaultSearchTarget is the SSDP search target answered by Hue bridges
const DefaultSearchTarget = "IpBridge"

// Endpoint is where the bridge REST API is served
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

// BaseURL returns scheme://host:port with no trailing slash
func (e Endpoint) BaseURL() string {
	return fmt.Sprintf("%s://%s", e.Scheme, net.JoinHostPort(e.Host, strconv.Itoa(e.Port)))
}

func (e Endpoint) String() string {
	return e.BaseURL()
}

// EndpointOptions selects the bridge. When Address is empty the network is
// searched for it.
type EndpointOptions struct {
	Address      string
	Port         int
	Scheme       string
	SearchTarget string
}

// ResolveEndpoint yields exactly one bridge endpoint. An explicit address is
// used as given without touching the network. Otherwise d is asked once and
// must report exactly one bridge.
func ResolveEndpoint(ctx context.Context, opts EndpointOptions, d discovery.Discoverer) (Endpoint, error) {
	if opts.Address != "" {
		scheme := opts.Scheme
		if scheme == "" {
			scheme = "http"
		}
		port := opts.Port
		if port == 0 {
			port = defaultPort(scheme)
		}
		return Endpoint{Scheme: scheme, Host: opts.Address, Port: port}, nil
	}

	st := opts.SearchTarget
	if st == "" {
		st = DefaultSearchTarget
	}

	responses, err := d.Discover(ctx, st)
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to discover bridges: %w", err)
	}

	switch len(responses) {
	case 0:
		return Endpoint{}, ErrNoBridges
	case 1:
	default:
		locations := make([]string, len(responses))
		for i, r := range responses {
			locations[i] = r.Location
		}
		return Endpoint{}, &AmbiguousBridgesError{Locations: locations}
	}

	ep, err := endpointFromLocation(responses[0])
	if err != nil {
		return Endpoint{}, err
	}
	log.Info().Str("location", responses[0].Location).Str("endpoint", ep.BaseURL()).Msg("Discovered bridge")
	return ep, nil
}

func endpointFromLocation(r discovery.Response) (Endpoint, error) {
	u, err := r.URL()
	if err != nil {
		return Endpoint{}, fmt.Errorf("failed to parse bridge location %q: %w", r.Location, err)
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("bridge location %q has no scheme or host", r.Location)
	}

	scheme := strings.ToLower(u.Scheme)
	port := defaultPort(scheme)
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("bridge location %q has invalid port: %w", r.Location, err)
		}
	}
	return Endpoint{Scheme: scheme, Host: u.Hostname(), Port: port}, nil
}

func defaultPort(scheme string) int {
	if strings.EqualFold(scheme, "https") {
		return 443
	}
	return 80
}
