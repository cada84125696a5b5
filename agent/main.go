package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focus-guard/agent/internal/api"
	"focus-guard/agent/internal/auth"
	"focus-guard/agent/internal/config"
	"focus-guard/agent/internal/configstore"
	"focus-guard/agent/internal/initialize"
	"focus-guard/agent/internal/logger"
)

func main() {
	cfgPath := flag.String("config", config.DefaultPath, "Path to configuration file")
	flag.Parse()

	cfgVals := config.Init(*cfgPath)
	if err := logger.Init(cfgVals.LogPath, cfgVals.LogLevel); err != nil {
		fmt.Println("Cannot open log file:", err)
		return
	}

	app, err := initialize.Build(cfgVals)
	if err != nil {
		logger.Error("Cannot open storage:", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if res, err := app.Tracker.Startup(ctx); err != nil {
		logger.Errorf("Disable tracker startup failed: %v", err)
	} else if res.Disabled {
		logger.Warnf("Guard was inactive for %v", res.Gap.Round(time.Second))
	}
	app.Tracker.Start(ctx)

	if err := app.Config.Sync(ctx); err != nil {
		logger.Warnf("Initial legacy sync failed: %v", err)
	}

	var watcher *configstore.Watcher
	if cfgVals.PolicyFile != "" {
		watcher, err = configstore.NewWatcher(app.Config, cfgVals.PolicyFile)
		if err != nil {
			logger.Errorf("Cannot watch policy file %s: %v", cfgVals.PolicyFile, err)
		} else {
			watcher.Start(ctx, func(err error) {
				if err != nil {
					logger.Warnf("Policy import rejected: %v", err)
					return
				}
				logger.Infof("Policy imported from %s", cfgVals.PolicyFile)
			})
		}
	}

	sess, err := app.NewSession(ctx)
	if err != nil {
		logger.Error("Cannot start browsing session:", err)
		return
	}
	logger.Infof("Browsing session %s started", sess.ID)

	signer := auth.NewSigner(cfgVals.APISecret, cfgVals.TokenTTLMin)
	handler := api.NewRouter(
		api.NewGateController(sess.Guard),
		api.NewSettingsController(app.Config, app.Audit, app.Tracker),
		&api.Auth{Signer: signer},
	)
	srv := api.NewServer(cfgVals.APIHost, cfgVals.APIPort, handler)
	if err := srv.Start(); err != nil {
		logger.Error("Cannot start API server:", err)
		sess.Close()
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received, exiting...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("API shutdown: %v", err)
	}
	sess.Close()
	if watcher != nil {
		_ = watcher.Close()
	}
	cancel()
	app.Tracker.Stop(shutdownCtx)
}
