package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/angristan/bulby/internal/config"
	"github.com/angristan/bulby/internal/tui"
)

// options holds command line overrides for the configuration file
type options struct {
	configPath string
	address    string
	port       int
	scheme     string
	username   string
	logLevel   string
	demo       bool
}

func (o options) apply(cfg *config.Config) {
	if o.address != "" {
		cfg.Bridge.Address = o.address
	}
	if o.port != 0 {
		cfg.Bridge.Port = o.port
	}
	if o.scheme != "" {
		cfg.Bridge.Scheme = o.scheme
	}
	if o.username != "" {
		cfg.Bridge.Username = o.username
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file (default $XDG_CONFIG_HOME/bulby/config.yaml)")
	flag.StringVar(&opts.address, "address", "", "Bridge address, skips discovery")
	flag.IntVar(&opts.port, "port", 0, "Bridge port (default from scheme)")
	flag.StringVar(&opts.scheme, "scheme", "", "Bridge URL scheme, http or https")
	flag.StringVar(&opts.username, "username", "", "Application key registered with the bridge")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.BoolVar(&opts.demo, "demo", os.Getenv("BULBY_DEMO") != "", "Use a simulated bridge")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	opts.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	command, args := "", flag.Args()
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}
	if !knownCommand(command) {
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		usage()
		os.Exit(2)
	}

	// The TUI owns the terminal, logs go to a file or nowhere
	closeLog, err := setupLogging(cfg.Log, command == "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	err = run(ctx, cfg, opts.demo, command, args)
	cancel()
	closeLog()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: bulby [flags] [command]\n\n")
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  discover                 list bridges on the local network\n")
	fmt.Fprintf(out, "  pair                     register with the bridge (press its link button)\n")
	fmt.Fprintf(out, "  lights                   list lights and their state\n")
	fmt.Fprintf(out, "  color <light> <hex> [bri] set a light to an RGB color\n")
	fmt.Fprintf(out, "\nWithout a command the interactive light list starts.\n\nFlags:\n")
	flag.PrintDefaults()
}

func knownCommand(command string) bool {
	switch command {
	case "", "discover", "pair", "lights", "color":
		return true
	}
	return false
}

func run(ctx context.Context, cfg *config.Config, demo bool, command string, args []string) error {
	stdout := os.Stdout

	if command == "discover" {
		return runDiscover(ctx, newDiscoverer(cfg.Discovery), cfg.Discovery.SearchTarget, stdout)
	}

	bridge, err := newBridge(ctx, cfg, demo)
	if err != nil {
		return err
	}

	switch command {
	case "pair":
		return runPair(ctx, cfg, bridge, stdout)
	case "lights":
		return runLights(ctx, bridge, stdout)
	case "color":
		return runColor(ctx, bridge, args, stdout)
	}

	if err := requireRegistration(ctx, bridge); err != nil {
		return err
	}

	log.Info().Str("bridge", bridge.Host()).Msg("Starting TUI")
	p := tea.NewProgram(tui.NewModel(bridge), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running app: %w", err)
	}
	return nil
}

// setupLogging configures the global zerolog logger. When quiet is set the
// output goes to cfg.File, or is discarded when no file is configured.
func setupLogging(cfg config.LogConfig, quiet bool) (func(), error) {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	closer := func() {}
	colors := cfg.Colors
	if quiet {
		out = io.Discard
		colors = false
		if cfg.File != "" {
			f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
			if err != nil {
				return nil, err
			}
			out = f
			closer = func() { _ = f.Close() }
		}
	}

	if cfg.JSON {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch cfg.Level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	return closer, nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
