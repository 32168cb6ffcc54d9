// dnscontroller provides automatic DNS record management for Docker
// containers. It discovers hostnames either from a reverse proxy's router
// catalog or directly from container labels, computes the desired DNS
// record state, and drives one or more DNS providers to match it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/activitylog"
	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/config"
	"github.com/maxfield-allison/dnscontroller/internal/docker"
	"github.com/maxfield-allison/dnscontroller/internal/dockerevents"
	"github.com/maxfield-allison/dnscontroller/internal/dnsmanager"
	"github.com/maxfield-allison/dnscontroller/internal/health"
	"github.com/maxfield-allison/dnscontroller/internal/metrics"
	"github.com/maxfield-allison/dnscontroller/internal/modeswitch"
	"github.com/maxfield-allison/dnscontroller/internal/monitor"
	"github.com/maxfield-allison/dnscontroller/internal/tracker"
	"github.com/maxfield-allison/dnscontroller/pkg/provider"
	"github.com/maxfield-allison/dnscontroller/pkg/routerclient"
	"github.com/maxfield-allison/dnscontroller/providers/cloudflare"
	"github.com/maxfield-allison/dnscontroller/providers/dnsmasq"
	"github.com/maxfield-allison/dnscontroller/providers/pihole"
	"github.com/maxfield-allison/dnscontroller/providers/rfc2136"
	"github.com/maxfield-allison/dnscontroller/providers/technitium"
	"github.com/maxfield-allison/dnscontroller/providers/webhook"
)

// controllerName is embedded in the legacy marker comment providers are
// asked to look for when adopting pre-existing records.
const controllerName = "dnscontroller"

// Version and BuildDate are set via ldflags during build.
// Example: -ldflags="-X main.Version=v1.0.0 -X main.BuildDate=2026-01-03"
var (
	Version   = "dev"
	BuildDate = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to YAML configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("dnscontroller %s (built %s)\n", Version, BuildDate)
		os.Exit(0)
	}

	// If --config flag is set, set it as env var so config.Load() picks it up
	// This maintains the priority: env var (DNSCONTROLLER_CONFIG) > --config flag
	if *configPath != "" && os.Getenv("DNSCONTROLLER_CONFIG") == "" {
		if err := os.Setenv("DNSCONTROLLER_CONFIG", *configPath); err != nil {
			slog.Error("failed to set DNSCONTROLLER_CONFIG", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration first (fail fast per DECISIONS.md)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	// Set up structured logging
	logger := setupLogger(cfg.LogLevel(), cfg.LogFormat())
	slog.SetDefault(logger)

	// Set build info metrics
	metrics.SetBuildInfo(Version, runtime.Version())

	logger.Info("dnscontroller starting",
		slog.String("version", Version),
		slog.String("build_date", BuildDate),
		slog.String("go_version", runtime.Version()),
		slog.Bool("dry_run", cfg.DryRun()),
		slog.String("operation_mode", cfg.OperationMode()),
	)

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The event bus is the spine everything else publishes to and
	// subscribes from: discovery monitors, the docker event watcher, the
	// dns manager, and the activity log.
	eventBus := bus.New(bus.WithLogger(logger))

	// Initialize Docker client
	dockerClient, err := docker.NewClient(ctx,
		docker.WithHost(cfg.DockerHost()),
		docker.WithMode(parseDockerMode(cfg.DockerMode())),
		docker.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("creating docker client: %w", err)
	}
	defer func() { _ = dockerClient.Close() }()

	logger.Info("docker client connected",
		slog.String("mode", dockerClient.Mode().String()),
	)

	// Initialize provider registry and manager.
	// The manager handles graceful initialization - providers that fail to
	// connect are retried in the background instead of causing a fatal error.
	providerRegistry := provider.NewRegistry(logger)
	registerProviderFactories(providerRegistry)

	providerManager := provider.NewManager(providerRegistry,
		provider.WithManagerLogger(logger),
	)
	if err := initializeProviders(providerManager, cfg); err != nil {
		return fmt.Errorf("initializing providers: %w", err)
	}

	// Start provider manager background retry loop
	if err := providerManager.Start(ctx); err != nil {
		return fmt.Errorf("starting provider manager: %w", err)
	}
	defer providerManager.Stop()

	// Log provider status summary
	if providerManager.PendingCount() > 0 {
		logger.Warn("some providers failed to initialize and will be retried",
			slog.Int("ready", providerManager.ReadyCount()),
			slog.Int("pending", providerManager.PendingCount()),
		)
		for _, status := range providerManager.PendingProviders() {
			logger.Warn("pending provider",
				slog.String("provider", status.Name),
				slog.String("type", status.Type),
				slog.String("error", status.LastError),
			)
		}
	}

	// The tracker persists the record index across restarts; its parent
	// directory must exist before New opens the store file.
	if err := os.MkdirAll(cfg.StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory %s: %w", cfg.StateDir(), err)
	}
	trk, err := tracker.New(filepath.Join(cfg.StateDir(), "tracker.json"),
		tracker.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("loading record tracker: %w", err)
	}

	// The dns manager turns discovered hostnames into desired record state
	// and drives the provider registry to match it.
	dnsMgr := dnsmanager.New(providerRegistry, trk, eventBus, dnsManagerConfig(cfg),
		dnsmanager.WithLogger(logger),
	)
	if err := dnsMgr.Init(ctx); err != nil {
		logger.Warn("dns manager init reported errors", slog.String("error", err.Error()))
	}

	// Both discovery topics funnel into the same reconcile path: whichever
	// monitor mode is active is the only one publishing at any given time.
	eventBus.Subscribe(bus.TopicRoutersUpdated, func(payload any) error {
		return handleDiscoveryUpdate(ctx, dnsMgr, logger, payload)
	})
	eventBus.Subscribe(bus.TopicLabelsUpdated, func(payload any) error {
		return handleDiscoveryUpdate(ctx, dnsMgr, logger, payload)
	})

	// The docker event watcher keeps a label cache current and publishes
	// CONTAINER_* events; the Direct monitor reads straight from that cache.
	labelCache := dockerevents.NewLabelCache()
	dockerWatcher := dockerevents.New(dockerClient, labelCache, eventBus,
		dockerevents.WithLogger(logger),
		dockerevents.WithConfig(dockerevents.Config{
			SocketPath:        dockerSocketPath(cfg.DockerHost()),
			ReconnectInterval: 5 * time.Second,
			CleanupDelay:      5 * time.Second,
		}),
	)

	routerClient := routerclient.New(cfg.Global.RouterAPIURL,
		routerclient.WithBasicAuth(cfg.Global.RouterAPIUsername, cfg.Global.RouterAPIPassword),
		routerclient.WithTimeout(cfg.Global.APITimeout),
		routerclient.WithLogger(logger),
	)
	routerMonitor := monitor.NewRouter(routerClient, labelCache, eventBus, cfg.PollInterval(),
		monitor.WithRouterLogger(logger),
	)
	directMonitor := monitor.NewDirect(labelCache, eventBus, cfg.PollInterval(), cfg.Global.GenericLabelPrefix,
		monitor.WithDirectLogger(logger),
	)

	switcher := modeswitch.New(routerMonitor, directMonitor, eventBus,
		modeswitch.WithLogger(logger),
	)

	// Activity log tails the DNS_RECORD_* topics for observability; it
	// never participates in reconciliation itself.
	actLog := activitylog.New(eventBus, activitylog.WithLogger(logger))

	// Start health server with provider manager status
	healthServer := health.New(cfg.HealthPort(),
		health.WithLogger(logger),
	)

	// Register provider health checkers for /ready endpoint
	for _, inst := range providerRegistry.All() {
		inst := inst // capture for closure
		healthServer.RegisterChecker("provider:"+inst.Name(), func(ctx context.Context) error {
			return inst.Ping(ctx)
		})
	}

	// Register a degraded checker for pending providers
	healthServer.RegisterDegradedChecker("provider-manager", func(ctx context.Context) (bool, string) {
		if providerManager.PendingCount() > 0 {
			pending := providerManager.PendingProviders()
			names := make([]string, len(pending))
			for i, p := range pending {
				names[i] = p.Name
			}
			return true, fmt.Sprintf("%d providers pending: %v", len(pending), names)
		}
		return false, ""
	})

	healthServer.RegisterDegradedChecker("discovery-mode", func(ctx context.Context) (bool, string) {
		active := switcher.Active()
		if active != modeswitch.ModeRouter && active != modeswitch.ModeDirect {
			return true, fmt.Sprintf("no discovery monitor active (mode=%q)", active)
		}
		return false, ""
	})

	if err := healthServer.Start(); err != nil {
		return fmt.Errorf("starting health server: %w", err)
	}

	// Start the docker event watcher and the discovery monitor for the
	// configured operation mode.
	if err := dockerWatcher.Start(ctx); err != nil {
		return fmt.Errorf("starting docker event watcher: %w", err)
	}

	if err := switcher.Start(ctx, modeswitch.Mode(cfg.OperationMode())); err != nil {
		return fmt.Errorf("starting discovery monitor: %w", err)
	}

	logger.Info("dnscontroller initialized, watching for changes",
		slog.Int("providers", providerRegistry.Count()),
		slog.String("operation_mode", string(switcher.Active())),
		slog.Int("health_port", cfg.HealthPort()),
		slog.Int("activity_log_size", actLog.Len()),
	)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	sig := <-sigChan
	logger.Info("received shutdown signal", slog.String("signal", sig.String()))

	// Graceful shutdown
	logger.Info("shutting down...")
	cancel()

	switcher.Stop()
	dockerWatcher.Stop()

	// Shutdown health server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("health server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("dnscontroller shutdown complete")
	return nil
}

// handleDiscoveryUpdate adapts a monitor.DiscoveryUpdate bus payload into a
// dnsmanager.ProcessHostnames call. Registered identically on both discovery
// topics since only one monitor publishes at a time.
func handleDiscoveryUpdate(ctx context.Context, mgr *dnsmanager.Manager, logger *slog.Logger, payload any) error {
	update, ok := payload.(monitor.DiscoveryUpdate)
	if !ok {
		return fmt.Errorf("discovery update: unexpected payload type %T", payload)
	}

	stats, err := mgr.ProcessHostnames(ctx, update.Hostnames, update.LabelsByHostname, update.ContainerRemoved)
	if err != nil {
		return fmt.Errorf("processing hostnames: %w", err)
	}

	logger.Info("reconciliation complete", slog.String("stats", stats.String()))
	return nil
}

// dnsManagerConfig builds the dns manager's config snapshot from the
// loaded application configuration.
func dnsManagerConfig(cfg *config.Config) dnsmanager.Config {
	managed := make([]dnsmanager.ManagedRecord, 0, len(cfg.ManagedRecords))
	for _, mr := range cfg.ManagedRecords {
		managed = append(managed, dnsmanager.ManagedRecord{
			Hostname: mr.Hostname,
			Type:     mr.Type,
			Content:  mr.Content,
			TTL:      mr.TTL,
			Proxied:  mr.Proxied,
		})
	}

	return dnsmanager.Config{
		ControllerName:     controllerName,
		GenericLabelPrefix: cfg.Global.GenericLabelPrefix,
		DefaultManage:      cfg.Global.DefaultManage,
		DefaultType:        cfg.Global.DefaultRecordType,
		DefaultTTL:         cfg.Global.DefaultTTL,
		DefaultProxied:     cfg.Global.DefaultProxied,
		CleanupOrphaned:    cfg.CleanupOrphans(),
		CleanupGracePeriod: cfg.CleanupGracePeriod(),
		ManagedRecords:     managed,
		ProviderZones:      cfg.ProviderZones(),
	}
}

func setupLogger(level, format string) *slog.Logger {
	logLevel := parseLogLevel(level)

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	}

	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDockerMode(mode string) docker.Mode {
	switch mode {
	case "swarm":
		return docker.ModeSwarm
	case "standalone":
		return docker.ModeStandalone
	default:
		return docker.ModeAuto
	}
}

// dockerSocketPath extracts a unix socket path from a docker host setting,
// falling back to the dockerevents default for non-unix hosts (e.g. tcp://)
// since the raw event stream reader only speaks to a unix socket.
func dockerSocketPath(dockerHost string) string {
	const unixPrefix = "unix://"
	if len(dockerHost) > len(unixPrefix) && dockerHost[:len(unixPrefix)] == unixPrefix {
		return dockerHost[len(unixPrefix):]
	}
	return dockerevents.DefaultConfig().SocketPath
}

func registerProviderFactories(registry *provider.Registry) {
	// Register Technitium provider factory (private DNS)
	registry.RegisterFactory("technitium", technitium.Factory())

	// Register Cloudflare provider factory (public DNS)
	registry.RegisterFactory("cloudflare", cloudflare.Factory())

	// Register Webhook provider factory (custom integrations)
	registry.RegisterFactory("webhook", webhook.Factory())

	// Register dnsmasq provider factory (local DNS, Pi-hole backend)
	registry.RegisterFactory("dnsmasq", dnsmasq.Factory())

	// Register Pi-hole provider factory (local DNS via Pi-hole API or file mode)
	registry.RegisterFactory("pihole", pihole.Factory())

	// Register RFC 2136 provider factory (BIND, Windows DNS, PowerDNS, etc.)
	registry.RegisterFactory("rfc2136", rfc2136.Factory())
}

// initializeProviders initializes all configured providers using the manager.
// Unlike a synchronous factory call, this does not fail fatally if a
// provider is temporarily unavailable - it queues it for retry instead.
func initializeProviders(manager *provider.Manager, cfg *config.Config) error {
	for _, inst := range cfg.ProviderInstances {
		providerCfg := inst.ToProviderConfig()
		if err := manager.InitializeProvider(providerCfg); err != nil {
			// Only returns error for invalid configuration (not connection failures)
			return fmt.Errorf("invalid provider config %s: %w", inst.Name, err)
		}
	}
	return nil
}
