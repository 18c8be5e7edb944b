package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/indigo-web/fileserve"
	"github.com/indigo-web/fileserve/config"
	"github.com/indigo-web/fileserve/http/status"
	"github.com/rs/zerolog"
)

func main() {
	addr := flag.String("addr", ":8080", "address to listen on")
	root := flag.String("root", "", "document root, overrides the config")
	configPath := flag.String("config", "", "path to a JSON config")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.Default()
	if len(*configPath) > 0 {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot load config")
		}

		cfg = loaded
	}

	if len(*root) > 0 {
		cfg.Static.Root = *root
	}

	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		log = log.Level(level)
	}

	app := fileserve.New(*addr).
		Tune(cfg).
		Logger(log).
		NotifyOnStop(func() {
			log.Info().Msg("stopped")
		})

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		app.Stop()
	}()

	if err := app.Serve(); err != nil && !errors.Is(err, status.ErrShutdown) {
		log.Fatal().Err(err).Msg("server failed")
	}
}
