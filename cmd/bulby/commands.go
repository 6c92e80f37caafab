package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/angristan/bulby/internal/api"
	"github.com/angristan/bulby/internal/config"
	"github.com/angristan/bulby/internal/discovery"
)

var errNotPaired = errors.New("not paired with the bridge, run \"bulby pair\" and press the link button")

func newDiscoverer(cfg config.DiscoveryConfig) discovery.Discoverer {
	if cfg.Method == config.DiscoveryMDNS {
		return discovery.NewMDNS(cfg.Timeout.Duration())
	}
	c := discovery.NewClient()
	c.Timeout = cfg.Timeout.Duration()
	c.Retries = cfg.Retries
	return c
}

// newBridge connects to the configured bridge, or to a simulated one that
// already has the link button pressed when demo is set.
func newBridge(ctx context.Context, cfg *config.Config, demo bool) (*api.HueBridge, error) {
	if demo {
		transport := api.NewDemoTransport()
		transport.PressLinkButton()
		bridge := api.NewHueBridge(transport, cfg.Bridge.Username, cfg.Bridge.DeviceType)
		if err := bridge.Connect(ctx); err != nil {
			return nil, fmt.Errorf("demo bridge: %w", err)
		}
		log.Info().Msg("Demo mode enabled")
		return bridge, nil
	}

	endpoint, err := api.ResolveEndpoint(ctx, api.EndpointOptions{
		Address:      cfg.Bridge.Address,
		Port:         cfg.Bridge.Port,
		Scheme:       cfg.Bridge.Scheme,
		SearchTarget: cfg.Discovery.SearchTarget,
	}, newDiscoverer(cfg.Discovery))
	if err != nil {
		return nil, err
	}

	transport := api.NewHTTPTransport(endpoint, cfg.Bridge.Timeout.Duration(), cfg.Bridge.RateLimitRPS)
	return api.NewHueBridge(transport, cfg.Bridge.Username, cfg.Bridge.DeviceType), nil
}

func requireRegistration(ctx context.Context, bridge api.BridgeClient) error {
	ok, err := bridge.ValidateRegistration(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errNotPaired
	}
	return nil
}

// runDiscover lists every bridge that answered. An empty answer is not an error.
func runDiscover(ctx context.Context, d discovery.Discoverer, searchTarget string, out io.Writer) error {
	responses, err := d.Discover(ctx, searchTarget)
	if err != nil {
		return err
	}
	if len(responses) == 0 {
		fmt.Fprintln(out, "No bridges found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOCATION\tUSN\tMAX-AGE")
	for _, r := range responses {
		fmt.Fprintf(w, "%s\t%s\t%d\n", r.Location, r.USN, r.MaxAge)
	}
	return w.Flush()
}

func runPair(ctx context.Context, cfg *config.Config, bridge api.BridgeClient, out io.Writer) error {
	fmt.Fprintf(out, "Press the link button on the bridge at %s (waiting %s)\n", bridge.Host(), cfg.Bridge.PairTimeout.Duration())
	if err := bridge.Pair(ctx, cfg.Bridge.PairTimeout.Duration()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Paired as %s\n", bridge.Username())
	return nil
}

func runLights(ctx context.Context, bridge api.BridgeClient, out io.Writer) error {
	if err := requireRegistration(ctx, bridge); err != nil {
		return err
	}
	lights, err := bridge.GetLights(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tON\tBRI\tCOLOR\tREACHABLE")
	for _, l := range lights {
		fmt.Fprintf(w, "%d\t%s\t%t\t%d%%\t%s\t%t\n",
			l.ID, l.Name, l.State.On, l.BrightnessPct(), l.SwatchHex(), l.State.Reachable)
	}
	return w.Flush()
}

func runColor(ctx context.Context, bridge api.BridgeClient, args []string, out io.Writer) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: bulby color <light> <hex> [bri]")
	}

	var bri *uint8
	if len(args) == 3 {
		v, err := parseBrightness(args[2])
		if err != nil {
			return err
		}
		bri = &v
	}

	if err := requireRegistration(ctx, bridge); err != nil {
		return err
	}
	if err := bridge.SetColor(ctx, args[0], args[1], bri); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s set to %s\n", args[0], args[1])
	return nil
}

// parseBrightness accepts the bridge range 1-254
func parseBrightness(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v < 1 || v > 254 {
		return 0, fmt.Errorf("brightness must be between 1 and 254, got %q", s)
	}
	return uint8(v), nil
}
