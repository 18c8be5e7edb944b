package fileserve

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/indigo-web/fileserve/config"
	"github.com/indigo-web/fileserve/http/status"
	"github.com/indigo-web/fileserve/internal/address"
	"github.com/indigo-web/fileserve/internal/server/http"
	"github.com/indigo-web/fileserve/internal/server/tcp"
	"github.com/indigo-web/fileserve/internal/static"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// App serves files from the configured document root.
type App struct {
	addr    address.Address
	cfg     *config.Config
	log     zerolog.Logger
	custom  bool
	hooks   hooks
	counter *http.Counter
	errCh   chan error
	mu      sync.Mutex
}

// New returns a new App instance.
func New(addr string) *App {
	appAddr, err := address.Parse(addr)
	if err != nil {
		panic(fmt.Errorf("fileserve: listen: bad addr: %v", err))
	}

	cfg := config.Default()

	return &App{
		addr:    appAddr,
		cfg:     cfg,
		log:     newLogger(cfg.Log),
		counter: new(http.Counter),
		errCh:   make(chan error, 1),
	}
}

// Tune replaces default config.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = cfg
	if !a.custom {
		a.log = newLogger(cfg.Log)
	}

	return a
}

// Logger replaces the default console logger.
func (a *App) Logger(log zerolog.Logger) *App {
	a.log = log
	a.custom = true
	return a
}

// NotifyOnStart calls the callback at the moment, when all the event loops are started and
// listening.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback at the moment, when all the event loops are down. It's
// guaranteed, that at the moment as the callback is called, all the clients are already
// disconnected.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Addr returns the listening address. If the port was 0, after the start it's the one
// picked by the kernel.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.addr.String()
}

// Connections returns the number of currently open client connections.
func (a *App) Connections() int64 {
	return a.counter.Load()
}

// Serve starts the event loops and blocks until they're stopped. Returns status.ErrShutdown
// if stopped via Stop.
func (a *App) Serve() error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	if err := checkRoot(a.cfg.Static.Root); err != nil {
		return err
	}

	servers, err := a.getServers()
	if err != nil {
		return err
	}

	a.log.Info().
		Str("addr", a.Addr()).
		Str("root", a.cfg.Static.Root).
		Int("workers", len(servers)).
		Msg("serving")

	return a.run(servers)
}

// Stop stops the whole application.
//
// NOTE: the call isn't blocking. So by that, after the method returned, the server
// may still be working
func (a *App) Stop() {
	select {
	case a.errCh <- status.ErrShutdown:
	default:
	}
}

func (a *App) getServers() ([]*tcp.Server, error) {
	resolver := static.NewResolver(a.cfg.Static)
	onConn := func(fd int, log zerolog.Logger) *http.Conn {
		return http.NewConn(a.cfg, http.FD(fd), resolver, a.counter, log)
	}

	servers := make([]*tcp.Server, 0, a.cfg.NET.Workers)

	for i := 0; i < a.cfg.NET.Workers; i++ {
		server, err := a.newServer(i, onConn)
		if err != nil {
			for _, s := range servers {
				s.Close()
			}

			return nil, err
		}

		servers = append(servers, server)
	}

	return servers, nil
}

func (a *App) newServer(worker int, onConn tcp.OnConn) (*tcp.Server, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	listener, err := tcp.Listen(a.addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.addr, err)
	}

	if a.addr.Port == 0 {
		// the rest of the loops must share the port with the first one
		port, err := tcp.Port(listener)
		if err != nil {
			return nil, errors.Join(err, unix.Close(listener))
		}

		a.addr.Port = uint16(port)
	}

	log := a.log.With().Int("worker", worker).Logger()

	return tcp.NewServer(listener, a.cfg.NET.MaxEvents, onConn, log)
}

func (a *App) run(servers []*tcp.Server) error {
	wg := new(sync.WaitGroup)

	for _, server := range servers {
		wg.Add(1)
		go func(server *tcp.Server) {
			defer wg.Done()

			if err := server.Start(); err != nil {
				select {
				case a.errCh <- err:
				default:
				}
			}
		}(server)
	}

	callIfNotNil(a.hooks.OnStart)
	err := <-a.errCh

	for _, server := range servers {
		if stopErr := server.Stop(); stopErr != nil {
			a.log.Warn().Err(stopErr).Msg("cannot stop the event loop")
		}
	}

	wg.Wait()
	// drop whatever the stopped loops reported
	select {
	case <-a.errCh:
	default:
	}

	callIfNotNil(a.hooks.OnStop)

	return err
}

func checkRoot(root string) error {
	stat, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("document root: %w", err)
	}

	if !stat.IsDir() {
		return fmt.Errorf("document root: %s is not a directory", root)
	}

	return nil
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
