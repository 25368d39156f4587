package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/activation"
	"github.com/mordilloSan/go-logger/logger"

	"github.com/ragos-nas/webadmin/authn"
	"github.com/ragos-nas/webadmin/common/command"
	"github.com/ragos-nas/webadmin/common/config"
	"github.com/ragos-nas/webadmin/common/session"
	"github.com/ragos-nas/webadmin/directory"
	"github.com/ragos-nas/webadmin/monitor"
	"github.com/ragos-nas/webadmin/quota"
	"github.com/ragos-nas/webadmin/store"
	"github.com/ragos-nas/webadmin/webserver/api"
	"github.com/ragos-nas/webadmin/webserver/auth"
	"github.com/ragos-nas/webadmin/webserver/web"
)

// Login attempts older than this are useless for throttling and only bloat
// the table.
const (
	attemptRetention     = 24 * time.Hour
	attemptPruneInterval = time.Hour
)

func RunServer(srvCfg ServerConfig) {
	// -------------------------------------------------------------------------
	// Logging (from flags)
	// -------------------------------------------------------------------------
	var levels []logger.Level
	if srvCfg.Verbose {
		levels = logger.AllLevels() // includes DEBUG
	} else {
		levels = []logger.Level{logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel}
	}
	logger.Init(logger.Config{Levels: levels})
	logger.InfoKV("server starting", "verbose", srvCfg.Verbose, "version", config.Version)

	// -------------------------------------------------------------------------
	// Configuration
	// -------------------------------------------------------------------------
	cfg, err := config.Load(srvCfg.ConfigPath)
	if err != nil {
		logger.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Debugf("Domain=%s realm=%s filesystem=%s", cfg.Domain, cfg.Realm, cfg.Filesystem)

	// -------------------------------------------------------------------------
	// Persistence
	// -------------------------------------------------------------------------
	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logger.Errorf("failed to open database: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := st.SeedDefaultPolicy(seedCtx, int64(cfg.DefaultSoftLimitMB), int64(cfg.DefaultHardLimitMB)); err != nil {
		logger.Warnf("could not seed default quota policy: %v", err)
	}
	seedCancel()

	// -------------------------------------------------------------------------
	// Domain services
	// -------------------------------------------------------------------------
	runner := command.NewRunner()
	dirSvc := directory.NewService(runner, cfg.SambaTool, cfg.Server)
	quotaEng := quota.NewEngine(runner, cfg.Filesystem, cfg.SetquotaCmd, cfg.QuotaCmd, cfg.RepquotaCmd)
	authSvc := authn.NewService(runner, st, dirSvc, authn.Config{
		Realm:        cfg.Realm,
		KinitPath:    cfg.KinitCmd,
		KdestroyPath: cfg.KdestroyCmd,
		MaxAttempts:  cfg.MaxLoginAttempts,
		Window:       cfg.LockoutWindow,
	})

	var watcher api.ServiceWatcher
	if systemd, err := monitor.NewSystemdClient(); err != nil {
		logger.Warnf("system bus unavailable, service monitoring disabled: %v", err)
	} else {
		watcher = systemd
		defer systemd.Close()
	}

	// -------------------------------------------------------------------------
	// Sessions
	// -------------------------------------------------------------------------
	// TLS terminates at the reverse proxy in front of this service, so the
	// cookie must not be Secure-only here.
	sessCfg := session.DefaultConfig
	sessCfg.Cookie.Secure = false
	sm := session.NewManager(session.New(), sessCfg)

	// -------------------------------------------------------------------------
	// Router
	// -------------------------------------------------------------------------
	apiHandlers := &api.Handlers{
		Dir:     dirSvc,
		Quota:   quotaEng,
		Store:   st,
		SM:      sm,
		Runner:  runner,
		Systemd: watcher,
	}
	router := web.BuildRouter(web.Config{
		Verbose: srvCfg.Verbose,
		RegisterRoutes: func(mux *http.ServeMux) {
			auth.RegisterAuthRoutes(mux, sm, authSvc, st)
			api.RegisterAPIRoutes(mux, sm, apiHandlers)
			mux.Handle("GET /ws/metrics", sm.RequireSession(web.MetricsStreamHandler(cfg.Filesystem)))
		},
	})

	// -------------------------------------------------------------------------
	// Request tracking for idle-exit
	// -------------------------------------------------------------------------
	var inFlight atomic.Int64
	var lastHit atomic.Int64
	lastHit.Store(time.Now().UnixNano())

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastHit.Store(time.Now().UnixNano())
		inFlight.Add(1)
		defer inFlight.Add(-1)
		router.ServeHTTP(w, r)
	})

	// -------------------------------------------------------------------------
	// Background attempt pruning
	// -------------------------------------------------------------------------
	pruneStop := make(chan struct{})
	go func() {
		t := time.NewTicker(attemptPruneInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if n, err := st.PruneAttempts(time.Now().Add(-attemptRetention)); err != nil {
					logger.Warnf("login attempt pruning failed: %v", err)
				} else if n > 0 {
					logger.Debugf("pruned %d old login attempts", n)
				}
			case <-pruneStop:
				return
			}
		}
	}()

	// -------------------------------------------------------------------------
	// HTTP server
	// -------------------------------------------------------------------------
	srv := &http.Server{
		Handler:  handler,
		ErrorLog: log.New(web.HTTPErrorLogAdapter{}, "", 0),
	}

	quit := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		// -------- systemd socket activation first ----------
		listeners, actErr := activation.Listeners()
		if actErr != nil {
			logger.Warnf("activation.Listeners error: %v", actErr)
		}
		if len(listeners) > 0 {
			logger.Infof("Socket-activated server listening on inherited sockets")

			// Exit when idle so the socket unit can restart us on demand.
			startSocketIdleExitWatcher(srv, sm, &inFlight, &lastHit, 90*time.Second, 15*time.Second)

			serveDone := make(chan struct{}, len(listeners))
			for _, l := range listeners {
				go func(lis net.Listener) {
					if e := srv.Serve(lis); e != nil && e != http.ErrServerClosed {
						logger.Errorf("server error: %v", e)
						os.Exit(1)
					}
					serveDone <- struct{}{}
				}(l)
			}
			<-serveDone
			close(done)
			return
		}

		// -------- fallback: self-bind (manual runs) ----------
		srv.Addr = fmt.Sprintf(":%d", srvCfg.Port)
		logger.Infof("HTTP server (self-bound) at http://localhost:%d", srvCfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
		close(done)
	}()

	// -------------------------------------------------------------------------
	// Shutdown coordination
	// -------------------------------------------------------------------------
	select {
	case <-quit:
		logger.Infof("Shutdown signal received")
	case <-done:
		logger.Infof("HTTP server stopped, beginning shutdown...")
	}

	srv.SetKeepAlivesEnabled(false)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if errors.Is(err, context.DeadlineExceeded) {
			logger.Warnf("Graceful HTTP shutdown timed out; forcing close of remaining connections.")
			if cerr := srv.Close(); cerr != nil && !errors.Is(cerr, http.ErrServerClosed) {
				logger.Warnf("HTTP server force-close error: %v", cerr)
			}
		} else {
			logger.Warnf("HTTP server shutdown error: %v", err)
		}
	} else {
		logger.Infof("HTTP server closed")
	}

	close(pruneStop)
	sm.Close()

	logger.Infof("Server stopped.")
}

func startSocketIdleExitWatcher(
	srv *http.Server,
	sm *session.Manager,
	inFlight *atomic.Int64,
	lastHit *atomic.Int64,
	idleGrace time.Duration,
	checkEvery time.Duration,
) {
	if idleGrace <= 0 || checkEvery <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(checkEvery)
		defer t.Stop()
		for range t.C {
			if inFlight.Load() > 0 {
				continue
			}
			if time.Since(time.Unix(0, lastHit.Load())) < idleGrace {
				continue
			}
			act, err := sm.ActiveSessions()
			if err != nil || len(act) > 0 {
				continue
			}

			logger.Infof("Idle for %v and no active sessions, exiting (socket keeps the port open)", idleGrace)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(ctx)
			cancel()
			return
		}
	}()
}
