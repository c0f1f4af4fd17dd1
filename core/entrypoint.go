package core

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/Oshadha-Nimantha/osdrp/perf"
	"github.com/Oshadha-Nimantha/osdrp/state"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slogmulti "github.com/samber/slog-multi"
)

func ReadCentralConfig(centralPath string) (*state.CentralCfg, error) {
	var centralCfg state.CentralCfg
	file, err := os.ReadFile(centralPath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &centralCfg)
	if err != nil {
		return nil, err
	}
	return &centralCfg, nil
}

func ReadNodeConfig(nodePath string) (*state.LocalCfg, error) {
	var nodeCfg state.LocalCfg
	file, err := os.ReadFile(nodePath)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(file, &nodeCfg)
	if err != nil {
		return nil, err
	}
	return &nodeCfg, nil
}

// Bootstrap manages the lifetime of the whole daemon process.
func Bootstrap(centralPath, nodePath, logPath string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	centralCfg, err := ReadCentralConfig(centralPath)
	if err != nil {
		return err
	}
	nodeCfg, err := ReadNodeConfig(nodePath)
	if err != nil {
		return err
	}
	if logPath != "" {
		nodeCfg.LogPath = logPath
	}

	state.ExpandCentralConfig(centralCfg)
	if err := state.CentralConfigValidator(centralCfg); err != nil {
		return err
	}
	if err := state.NodeConfigValidator(nodeCfg); err != nil {
		return err
	}
	return Start(*centralCfg, *nodeCfg, level, nil)
}

// Options carries the injectable pieces of a router. Zero values give the
// production defaults: UDP transport and config-driven link sampling.
type Options struct {
	Transport Transport
	Sampler   LinkSampler
	Metric    state.MetricSource
	// NoSignals skips SIGINT/SIGTERM handling, for routers embedded in tests.
	NoSignals bool
	// InitState, if set, receives the state before the main loop starts. The
	// channel must have capacity; the send never blocks startup.
	InitState chan<- *state.State
}

// Start runs one router until its context is cancelled.
func Start(ccfg state.CentralCfg, ncfg state.LocalCfg, logLevel slog.Level, opts *Options) error {
	if opts == nil {
		opts = &Options{}
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(context.Canceled)

	dispatch := make(chan func(env *state.State) error, 128)

	handlers := make([]slog.Handler, 0)
	handlers = append(handlers,
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: string(ncfg.Id),
		}))
	if ncfg.LogPath != "" {
		err := os.MkdirAll(path.Dir(ncfg.LogPath), 0700)
		if err != nil {
			return err
		}
		f, err := os.OpenFile(ncfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0700)
		if err != nil {
			return err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	logger := slog.New(slogmulti.Fanout(handlers...))

	s := state.State{
		TrustedNodes: make(map[state.NodeId]ed25519.PublicKey),
		Modules:      make(map[string]state.OsModule),
		Neighbours:   ccfg.NeighboursOf(ncfg.Id),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			CentralCfg:      ccfg,
			LocalCfg:        ncfg,
			Log:             logger,
		},
	}
	for _, node := range ccfg.Nodes {
		s.TrustedNodes[node.Id] = node.PubKey.Ed()
	}
	if opts.InitState != nil {
		select {
		case opts.InitState <- &s:
		default:
		}
	}

	transport := opts.Transport
	if transport == nil {
		var err error
		transport, err = buildUdpTransport(&s)
		if err != nil {
			return err
		}
	}

	if ncfg.MetricsBind != "" {
		serveTelemetry(&s, ncfg.MetricsBind)
	}

	s.Log.Info("init modules")
	err := initModules(&s, transport, opts)
	if err != nil {
		return err
	}
	s.Log.Info("init modules complete")

	if !opts.NoSignals {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			select {
			case <-c:
				s.Cancel(errors.New("received shutdown signal"))
			case <-ctx.Done():
			}
		}()
	}

	return MainLoop(&s, dispatch)
}

func buildUdpTransport(s *state.State) (Transport, error) {
	bind := s.Bind
	if !bind.IsValid() {
		self := s.CentralCfg.GetNode(s.Id)
		if self == nil || !self.Endpoint.IsValid() {
			return nil, fmt.Errorf("node %s has no bind address or central endpoint", s.Id)
		}
		bind = netip.AddrPortFrom(netip.IPv4Unspecified(), self.Endpoint.Port())
	}
	peers := make(map[state.NodeId]netip.AddrPort)
	for _, neigh := range s.Neighbours {
		node := s.CentralCfg.GetNode(neigh)
		if node == nil || !node.Endpoint.IsValid() {
			return nil, fmt.Errorf("neighbour %s has no configured endpoint", neigh)
		}
		peers[neigh] = node.Endpoint
	}
	return NewUdpTransport(bind, peers)
}

func serveTelemetry(s *state.State, bind string) {
	// expvar and perf already registered /debug/vars and /debug/metrics on
	// the default mux
	http.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: bind}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Warn("telemetry server stopped", "error", err)
		}
	}()
	go func() {
		<-s.Context.Done()
		shutdownCtx, release := context.WithTimeout(context.Background(), time.Second)
		defer release()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

func initModules(s *state.State, transport Transport, opts *Options) error {
	var modules []state.OsModule
	modules = append(modules, &OsdrpRouter{
		Transport: transport,
		Sampler:   opts.Sampler,
		Metric:    opts.Metric,
	})

	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

// Router returns the router agent module of a running state.
func Router(s *state.State) *OsdrpRouter {
	return s.Modules[reflect.TypeOf(&OsdrpRouter{}).String()].(*OsdrpRouter)
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > time.Millisecond*50 {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed, "len", len(dispatch))
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		err := module.Cleanup(s)
		if err != nil {
			s.Log.Error("error occurred during Stop: ", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
