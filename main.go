package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianadrielbraun/custqr/internal/config"
	"github.com/cristianadrielbraun/custqr/internal/export"
	"github.com/cristianadrielbraun/custqr/internal/handlers"
	"github.com/cristianadrielbraun/custqr/internal/logging"
	"github.com/cristianadrielbraun/custqr/internal/logo"
	"github.com/cristianadrielbraun/custqr/internal/render"
	"github.com/cristianadrielbraun/custqr/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	v, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	cfg, err := config.ParseConfig(v)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log, err := logging.Setup(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		logrus.Fatalf("logging: %v", err)
	}

	defaults, err := cfg.QR.Options()
	if err != nil {
		log.Fatalf("qr defaults: %v", err)
	}
	enc, err := render.NewEncoder(cfg.QR.Encoder)
	if err != nil {
		log.Fatalf("encoder: %v", err)
	}
	limits, err := logo.ProfileLimits(cfg.Logo.Profile)
	if err != nil {
		log.Fatalf("logo profile: %v", err)
	}

	renderer := render.New(enc, logging.Component(log, "render"))
	exporter := export.New(renderer, cfg.QR.ExportScale, cfg.Export.Verify, logging.Component(log, "export"))
	logos := logo.NewProcessor(limits, cfg.Logo.MaxEdge, cfg.Logo.DecodeTimeout, logging.Component(log, "logo"))

	store := session.NewStore(session.Config{
		Defaults:       defaults,
		URLDelay:       cfg.Debounce.URL,
		StructureDelay: cfg.Debounce.Structure,
	}, session.Deps{
		Renderer: renderer,
		Logos:    logos,
		Exporter: exporter,
		Log:      logging.Component(log, "session"),
	}, cfg.Session.IdleTTL)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go store.Run(ctx, cfg.Session.SweepInterval)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(logging.Middleware(log))
	r.Use(gin.Recovery())

	handlers.New(handlers.Deps{
		Sessions: store,
		Exporter: exporter,
		Logos:    logos,
		Defaults: defaults,
		Log:      logging.Component(log, "http"),
	}).Register(r)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"encoder": renderer.EncoderName(),
			"logos":   cfg.Logo.Profile,
		}).Info("custqr listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit
	log.Info("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown")
	}
}
