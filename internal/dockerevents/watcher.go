package dockerevents

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/maxfield-allison/dnscontroller/internal/bus"
	"github.com/maxfield-allison/dnscontroller/internal/docker"
)

// Config holds dockerevents watcher configuration.
type Config struct {
	// SocketPath is the Unix domain socket the event stream is read from.
	// Configured independently of the internal/docker.Client's own host
	// setting since that field isn't exported; operators point both at the
	// same daemon.
	SocketPath string

	// ReconnectInterval is how long to wait before reconnecting after a
	// stream error.
	ReconnectInterval time.Duration

	// CleanupDelay is carried in the configuration but not read by the
	// Watcher: stop/destroy events are published on the bus as soon as they
	// arrive, and no delayed cleanup trigger is scheduled.
	CleanupDelay time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		SocketPath:        "/var/run/docker.sock",
		ReconnectInterval: 5 * time.Second,
		CleanupDelay:      5 * time.Second,
	}
}

// Watcher reads the Docker event stream, keeps a LabelCache current, and
// publishes CONTAINER_* events on the bus.
type Watcher struct {
	dockerClient *docker.Client
	cache        *LabelCache
	bus          *bus.Bus
	config       Config
	logger       *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// Option is a functional option for configuring the Watcher.
type Option func(*Watcher)

// WithConfig sets the watcher configuration.
func WithConfig(cfg Config) Option {
	return func(w *Watcher) { w.config = cfg }
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Watcher over dockerClient, populating cache and publishing
// to b.
func New(dockerClient *docker.Client, cache *LabelCache, b *bus.Bus, opts ...Option) *Watcher {
	w := &Watcher{
		dockerClient: dockerClient,
		cache:        cache,
		bus:          b,
		config:       DefaultConfig(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start primes the label cache from a full workload listing, then begins
// watching the event stream in a background goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	ctx, w.cancel = context.WithCancel(ctx)
	w.running = true
	w.mu.Unlock()

	if err := w.primeCache(ctx); err != nil {
		w.logger.Warn("initial workload listing failed", slog.String("error", err.Error()))
	}

	go w.watchLoop(ctx)
	w.logger.Info("docker event watcher started", slog.String("socket", w.config.SocketPath))
	return nil
}

// Stop halts the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.running = false
	w.logger.Info("docker event watcher stopped")
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) primeCache(ctx context.Context) error {
	workloads, err := w.dockerClient.ListWorkloads(ctx)
	if err != nil {
		return fmt.Errorf("listing workloads: %w", err)
	}
	for _, wl := range workloads {
		w.cache.Set(wl.ID, wl.Name, wl.Labels)
	}
	return nil
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := w.watch(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("docker event stream error, reconnecting",
					slog.String("error", err.Error()),
					slog.Duration("retry_in", w.config.ReconnectInterval),
				)
				time.Sleep(w.config.ReconnectInterval)
			}
		}
	}
}

// watch opens a raw connection to the Docker socket and reads the event
// stream as raw chunks rather than through the SDK's strict JSON decoder, so
// ParseEvent's tolerance for concatenated/control-char-polluted messages is
// the thing actually standing between a noisy stream and a crashed watcher.
func (w *Watcher) watch(ctx context.Context) error {
	conn, err := net.Dial("unix", w.config.SocketPath)
	if err != nil {
		return fmt.Errorf("dialing docker socket: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	req, err := http.NewRequest(http.MethodGet, "http://docker/events?filters=%7B%22type%22%3A%5B%22container%22%5D%7D", nil)
	if err != nil {
		return fmt.Errorf("building events request: %w", err)
	}
	if err := req.Write(conn); err != nil {
		return fmt.Errorf("writing events request: %w", err)
	}

	reader := bufio.NewReader(conn)
	resp, err := http.ReadResponse(reader, req)
	if err != nil {
		return fmt.Errorf("reading events response: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("docker events endpoint returned status %d", resp.StatusCode)
	}

	var buf []byte
	chunk := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			buf = w.drainEvents(buf)
		}
		if readErr != nil {
			return readErr
		}
	}
}

// drainEvents extracts and handles every complete JSON object currently
// available in buf, returning the unconsumed remainder.
func (w *Watcher) drainEvents(buf []byte) []byte {
	for {
		obj, ok := firstBalancedObject(buf)
		if !ok {
			return buf
		}
		ev, err := ParseEvent(obj)
		if err != nil {
			w.logger.Warn("dropping unparseable docker event", slog.String("error", err.Error()))
		} else {
			w.handleEvent(ev)
		}

		idx := indexOf(buf, obj)
		if idx < 0 {
			return nil
		}
		buf = buf[idx+len(obj):]
	}
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func (w *Watcher) handleEvent(ev Event) {
	if ev.Type != "" && ev.Type != "container" {
		return
	}

	w.logger.Debug("docker event received", slog.String("action", ev.Action), slog.String("id", ev.ID))

	switch ev.Action {
	case "start":
		w.cache.Set(ev.ID, ev.Name, ev.Labels)
		w.bus.Publish(bus.TopicContainerStarted, ContainerEvent{ID: ev.ID, Name: ev.Name, Labels: ev.Labels})
	case "stop", "die":
		w.bus.Publish(bus.TopicContainerStopped, ContainerEvent{ID: ev.ID, Name: ev.Name, Labels: ev.Labels})
	case "destroy":
		w.cache.Remove(ev.ID)
		w.bus.Publish(bus.TopicContainerDestroyed, ContainerEvent{ID: ev.ID, Name: ev.Name})
	}
}

// ContainerEvent is the payload published on CONTAINER_* topics.
type ContainerEvent struct {
	ID     string
	Name   string
	Labels map[string]string
}
