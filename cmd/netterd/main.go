// Command netterd loads a single DSL source file, binds its routes and
// plugins into an interpreter, and serves it over HTTP. Usage:
//
//	netterd -source app.net [-config netter.json]
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/netterhq/netter/config"
	"github.com/netterhq/netter/lang"
	"github.com/netterhq/netter/lang/interpreter"
	"github.com/netterhq/netter/logger"
	"github.com/netterhq/netter/server"
)

func main() {
	sourcePath := flag.String("source", "", "path to the .net DSL source file")
	configPath := flag.String("config", "", "path to an optional JSON runtime config overlay")
	addr := flag.String("addr", "", "override the listen address (host:port)")
	flag.Parse()

	log := logger.New("netterd")

	if *sourcePath == "" {
		log.Fatal("missing required -source flag", nil)
	}

	src, err := os.ReadFile(*sourcePath)
	if err != nil {
		log.Fatal("failed to read source file", map[string]interface{}{"path": *sourcePath, "error": err.Error()})
	}

	file, err := lang.Parse(string(src))
	if err != nil {
		log.Fatal("failed to parse source file", map[string]interface{}{"path": *sourcePath, "error": err.Error()})
	}

	interp := interpreter.New(log)
	if err := interp.Load(file); err != nil {
		log.Fatal("failed to bind source file", map[string]interface{}{"path": *sourcePath, "error": err.Error()})
	}

	cfg := config.Default()
	if *configPath != "" {
		cfg, err = config.LoadOverlay(cfg, *configPath)
		if err != nil {
			log.Fatal("failed to load config overlay", map[string]interface{}{"path": *configPath, "error": err.Error()})
		}
	}
	if dsl := interp.Config(); dsl != nil {
		cfg.ApplyDSLConfig(dsl.Host, dsl.Port)
	}
	if *addr != "" {
		cfg.Address = *addr
	}

	if lvl, ok := parseLevel(cfg.LoggerMinLevel); ok {
		log.SetMinLevel(lvl)
	}

	srv := server.New(cfg, interp.TLS(), interp, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server exited with error", map[string]interface{}{"error": err.Error()})
		}
	case <-sig:
		log.Info("shutting down", map[string]interface{}{"grace_period": cfg.ShutdownGracePeriod.String()})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func parseLevel(name string) (logger.Level, bool) {
	switch name {
	case "trace":
		return logger.LevelTrace, true
	case "debug":
		return logger.LevelDebug, true
	case "info":
		return logger.LevelInfo, true
	case "warn":
		return logger.LevelWarn, true
	case "error":
		return logger.LevelError, true
	default:
		return 0, false
	}
}

