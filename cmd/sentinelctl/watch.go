package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/TamimulAhsan/sentineliam/core/infra/buildinfo"
	"github.com/TamimulAhsan/sentineliam/core/infra/bus"
	"github.com/TamimulAhsan/sentineliam/core/infra/locks"
	"github.com/TamimulAhsan/sentineliam/core/infra/logging"
	"github.com/TamimulAhsan/sentineliam/core/infra/metrics"
	"github.com/TamimulAhsan/sentineliam/core/infra/secrets"
)

const watchLease = "catalog:watch"

// runWatchCmd keeps the catalog warm: it reloads on an interval, prints
// catalog change events from the bus, and exposes Prometheus metrics. With a
// Redis lease configured, only one watcher across processes performs reloads.
func runWatchCmd(args []string) {
	fs := newFlagSet("watch")
	interval := fs.Duration("interval", 30*time.Second, "reload interval")
	serveMetrics := fs.Bool("metrics", true, "serve Prometheus metrics")
	fs.ParseArgs(args)

	buildinfo.Log("sentinelctl")

	cfg := fs.loadConfig()
	prom := metrics.NewProm("sentineliam")
	cat, notices, closeFn := newCatalog(cfg, prom)
	defer closeFn()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lease locks.Store
	owner := uuid.NewString()
	if cfg.RedisURL != "" {
		store, err := locks.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logging.Warn("sentinelctl", "lease store unavailable", "error", err.Error())
		} else {
			lease = store
			defer func() {
				releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = store.Release(releaseCtx, watchLease, owner)
				_ = store.Close()
			}()
		}
	}

	if cfg.NatsURL != "" {
		nb, err := bus.NewNatsBus(cfg.NatsURL)
		if err != nil {
			logging.Warn("sentinelctl", "event bus unavailable", "error", err.Error())
		} else {
			defer nb.Close()
			for _, subject := range []string{bus.SubjectCatalogLoaded, bus.SubjectPolicySaved, bus.SubjectPolicyDeleted} {
				err := nb.Subscribe(subject, func(subject string, data json.RawMessage) {
					if redacted, changed, err := secrets.RedactJSON(data); err == nil && changed {
						data = redacted
					}
					fmt.Printf("%s %s %s\n", time.Now().UTC().Format(time.RFC3339), subject, string(data))
				})
				if err != nil {
					logging.Warn("sentinelctl", "subscribe failed", "subject", subject, "error", err.Error())
				}
			}
		}
	}

	if *serveMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logging.Info("sentinelctl", "metrics listening", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logging.Error("sentinelctl", "metrics server failed", "error", err.Error())
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// holdLease reports whether this process may reload. Without a lease
	// store every watcher reloads independently.
	holdLease := func() bool {
		if lease == nil {
			return true
		}
		leaseCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if ok, err := lease.Renew(leaseCtx, watchLease, owner, 2*(*interval)); err == nil && ok {
			return true
		}
		_, ok, err := lease.Acquire(leaseCtx, watchLease, owner, 2*(*interval))
		if err != nil {
			logging.Warn("sentinelctl", "lease check failed", "error", err.Error())
			return false
		}
		return ok
	}

	reload := func() {
		if !holdLease() {
			return
		}
		if err := cat.Load(ctx); err != nil {
			logging.Warn("sentinelctl", "reload failed", "error", err.Error())
			printNotices(notices)
			return
		}
		logging.Info("sentinelctl", "catalog reloaded", "policies", cat.Len())
	}

	reload()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reload()
		}
	}
}
