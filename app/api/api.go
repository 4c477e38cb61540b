package api

import (
	"context"
	"fmt"
	"io"
	golog "log"
	gonet "net"
	gohttp "net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/slickfs/gateway/app"
	"github.com/slickfs/gateway/config"
	configstore "github.com/slickfs/gateway/config/store"
	configvars "github.com/slickfs/gateway/config/vars"
	"github.com/slickfs/gateway/engine"
	"github.com/slickfs/gateway/engine/blob"
	"github.com/slickfs/gateway/engine/blob/s3"
	"github.com/slickfs/gateway/engine/slick"
	"github.com/slickfs/gateway/engine/store"
	"github.com/slickfs/gateway/engine/store/bolt"
	"github.com/slickfs/gateway/http"
	"github.com/slickfs/gateway/log"
	"github.com/slickfs/gateway/prometheus"

	"github.com/google/gops/agent"
	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/automaxprocs/maxprocs"
)

// The API interface is the implementation for the gateway API.
type API interface {
	// Start starts the API. This is blocking until the app has
	// been ended with Stop() or Destroy(). In this case a nil error
	// is returned.
	Start(ctx context.Context) error

	// Stop stops the API. The configuration is kept such that the API
	// can be started again.
	Stop()

	// Destroy is the same as Stop() but the configuration is released as well.
	Destroy()

	// Reload the configuration for the API. If there's an error the
	// previously loaded configuration is not altered.
	Reload() error
}

type api struct {
	engine     engine.Engine
	prom       prometheus.Metrics
	mainserver *gohttp.Server

	errorChan chan error

	log struct {
		writer io.Writer
		logger struct {
			core log.Logger
			main log.Logger
		}
	}

	config struct {
		path   string
		store  configstore.Store
		config *config.Config
	}

	lock   sync.Mutex
	wgStop sync.WaitGroup
	state  string

	undoMaxprocs func()
}

// New returns a new instance of the API interface. If configpath is empty, the
// configuration is read from the environment only.
func New(configpath string, logwriter io.Writer) (API, error) {
	a := &api{
		state: "idle",
	}

	a.config.path = configpath
	a.log.writer = logwriter

	if a.log.writer == nil {
		a.log.writer = io.Discard
	}

	a.errorChan = make(chan error, 1)

	if err := a.Reload(); err != nil {
		return nil, err
	}

	return a, nil
}

func (a *api) Reload() error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.state == "running" {
		return fmt.Errorf("can't reload config while running")
	}

	if a.errorChan == nil {
		a.errorChan = make(chan error, 1)
	}

	var store configstore.Store
	var err error

	if len(a.config.path) != 0 {
		store, err = configstore.NewJSON(a.config.path)
		if err != nil {
			return err
		}
	} else {
		store = configstore.NewDummy()
	}

	cfg := store.Get()

	cfg.Merge()
	cfg.Validate(false)

	loglevel, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		loglevel = log.Linfo
	}

	var writer log.Writer

	if cfg.Log.Format == "json" {
		writer = log.NewZapWriter(a.log.writer, loglevel)
	} else {
		writer = log.NewConsoleWriter(a.log.writer, loglevel, true)
	}

	logger := log.New("Gateway").WithOutput(writer)

	logfields := log.Fields{
		"application": app.Name,
		"version":     app.Version.String(),
		"arch":        app.Arch,
		"compiler":    app.Compiler,
	}

	if len(app.Commit) != 0 && len(app.Branch) != 0 {
		logfields["commit"] = app.Commit
		logfields["branch"] = app.Branch
	}

	if len(app.Build) != 0 {
		logfields["build"] = app.Build
	}

	logger.Info().WithFields(logfields).Log("")

	if len(a.config.path) != 0 {
		logger.Info().WithField("path", a.config.path).Log("Read config file")
	} else {
		logger.Info().Log("No config file found, using environment only")
	}

	configlogger := logger.WithComponent("Config")
	cfg.Messages(func(level string, v configvars.Variable, message string) {
		configlogger = configlogger.WithFields(log.Fields{
			"variable":    v.Name,
			"value":       v.Value,
			"env":         v.EnvName,
			"description": v.Description,
			"override":    v.Merged,
		})
		configlogger.Debug().Log(message)

		switch level {
		case "warn":
			configlogger.Warn().Log(message)
		case "error":
			configlogger.Error().WithField("error", message).Log("")
		default:
			break
		}
	})

	if cfg.HasErrors() {
		logger.Error().WithField("error", "Not all variables are set or are valid. Check the error messages above. Bailing out.").Log("")
		return fmt.Errorf("not all variables are set or valid")
	}

	cfg.LoadedAt = time.Now()

	a.config.store = store
	a.config.config = cfg
	a.log.logger.core = logger

	return nil
}

func (a *api) start(ctx context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.errorChan == nil {
		a.errorChan = make(chan error, 1)
	}

	if a.state == "running" {
		return fmt.Errorf("already running")
	}

	a.state = "starting"

	cfg := a.config.config

	undoMaxprocs, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		format = strings.TrimPrefix(format, "maxprocs: ")
		a.log.logger.core.Debug().Log(format, args...)
	}))
	if err != nil {
		a.log.logger.core.Warn().Log("%s", err.Error())
	}

	a.undoMaxprocs = undoMaxprocs

	if len(cfg.Debug.AgentAddress) != 0 {
		if err := agent.Listen(agent.Options{
			Addr:                   cfg.Debug.AgentAddress,
			ReuseSocketAddrAndPort: true,
		}); err != nil {
			a.log.logger.core.Error().WithError(err).Log("Can't start gops agent")
		} else {
			a.log.logger.core.Debug().WithField("address", cfg.Debug.AgentAddress).Log("gops agent started")
		}
	}

	blobs, err := a.blobStore(cfg)
	if err != nil {
		return fmt.Errorf("unable to create blob store: %w", err)
	}

	a.log.logger.core.Info().WithField("type", blobs.Type()).Log("Blob store ready")

	operations, err := a.operationStore(cfg)
	if err != nil {
		return fmt.Errorf("unable to create operation store: %w", err)
	}

	e, err := slick.New(slick.Config{
		Blobs:      blobs,
		Operations: operations,
		ChunkSize:  cfg.Storage.ChunkSize * 1024,
		Workers:    cfg.Operations.Workers,
		Logger:     a.log.logger.core.WithComponent("Engine"),
	})
	if err != nil {
		operations.Close()
		return fmt.Errorf("unable to create engine: %w", err)
	}

	a.engine = e

	listener, err := gonet.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", cfg.Address, err)
	}

	_, portstring, err := gonet.SplitHostPort(listener.Addr().String())
	if err != nil {
		listener.Close()
		return fmt.Errorf("unable to determine the port of %s: %w", listener.Addr().String(), err)
	}

	port, _ := strconv.Atoi(portstring)

	a.log.logger.main = a.log.logger.core.WithComponent("HTTP").WithField("address", listener.Addr().String())

	serverConfig := http.Config{
		Logger:       a.log.logger.main,
		Engine:       a.engine,
		Port:         port,
		MaxBandwidth: cfg.API.MaxBandwidth,
		Keepalive:    time.Duration(cfg.API.Events.Keepalive) * time.Second,
		Profiling:    cfg.Debug.Profiling,
	}

	if cfg.Metrics.Enable {
		a.prom = prometheus.New()
		serverConfig.Metrics = a.prom
	}

	mainserverhandler, err := http.NewServer(serverConfig)
	if err != nil {
		listener.Close()
		return fmt.Errorf("unable to create server: %w", err)
	}

	if a.prom != nil {
		collectors := []promclient.Collector{
			prometheus.NewUptimeCollector(cfg.Name, time.Now()),
			prometheus.NewVolumeCollector(cfg.Name, a.engine),
			prometheus.NewOperationCollector(cfg.Name, a.engine),
			prometheus.NewHTTPCollector(cfg.Name, mainserverhandler, mainserverhandler),
		}

		for _, c := range collectors {
			if err := a.prom.Register(c); err != nil {
				a.log.logger.core.Warn().WithError(err).Log("Can't register collector")
			}
		}
	}

	sendError := func(err error) {
		select {
		case a.errorChan <- err:
		default:
		}
	}

	a.mainserver = &gohttp.Server{
		Handler:           mainserverhandler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          golog.New(a.log.logger.main.Debug(), "", 0),
	}

	var wgStart sync.WaitGroup

	wgStart.Add(1)
	a.wgStop.Add(1)

	go func() {
		logger := a.log.logger.main

		defer func() {
			logger.Info().Log("Server exited")
			a.wgStop.Done()
		}()

		wgStart.Done()

		logger.Info().Log("Server started")
		err := a.mainserver.Serve(listener)
		if err != nil && err != gohttp.ErrServerClosed {
			err = fmt.Errorf("HTTP server: %w", err)
		} else {
			err = nil
		}

		sendError(err)
	}()

	// Wait for the server to be started
	wgStart.Wait()

	a.state = "running"

	return nil
}

func (a *api) blobStore(cfg *config.Config) (blob.Store, error) {
	switch cfg.Storage.Type {
	case "disk":
		return blob.NewDiskStore(blob.DiskConfig{
			Dir: cfg.Storage.Dir,
		})
	case "s3":
		return s3.New(s3.Config{
			Endpoint:        cfg.Storage.S3.Endpoint,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			UseSSL:          cfg.Storage.S3.UseSSL,
			Prefix:          cfg.Storage.S3.Prefix,
			Logger:          a.log.logger.core.WithComponent("S3"),
		})
	}

	return blob.NewMemStore(), nil
}

func (a *api) operationStore(cfg *config.Config) (store.Store, error) {
	if len(cfg.Operations.DB) == 0 {
		return store.NewMemory(), nil
	}

	return bolt.New(bolt.Config{
		Path:   cfg.Operations.DB,
		Logger: a.log.logger.core.WithComponent("Operations"),
	})
}

func (a *api) Start(ctx context.Context) error {
	if err := a.start(ctx); err != nil {
		a.stop()
		return err
	}

	// Block until there's an error from the server or the context is done
	select {
	case err := <-a.errorChan:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *api) stop() {
	a.lock.Lock()
	defer a.lock.Unlock()

	logger := a.log.logger.core.WithField("action", "shutdown")

	if a.state == "idle" {
		logger.Info().Log("Complete")
		return
	}

	// Shutdown the HTTP mainserver
	if a.mainserver != nil {
		logger := a.log.logger.main
		logger.Info().Log("Stopping ...")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mainserver.Shutdown(ctx); err != nil {
			logger.Error().WithError(err).Log("")
		}

		a.mainserver = nil
	}

	// Wait for the server goroutine to exit
	logger.Info().Log("Waiting for the server to stop ...")
	a.wgStop.Wait()

	// Unregister all collectors
	if a.prom != nil {
		a.prom.UnregisterAll()
		a.prom = nil
	}

	// Cancel all running operations and close the stores
	if a.engine != nil {
		logger.Info().Log("Stopping all operations ...")
		if err := a.engine.Close(); err != nil {
			logger.Error().WithError(err).Log("Closing the engine")
		}
		a.engine = nil
	}

	// Stop gops agent
	agent.Close()

	// Drain error channel
	if a.errorChan != nil {
		close(a.errorChan)
		a.errorChan = nil
	}

	a.state = "idle"

	if a.undoMaxprocs != nil {
		a.undoMaxprocs()
		a.undoMaxprocs = nil
	}

	logger.Info().Log("Complete")
}

func (a *api) Stop() {
	a.log.logger.core.Info().Log("Shutdown requested ...")
	a.stop()
}

func (a *api) Destroy() {
	a.log.logger.core.Info().Log("Shutdown requested ...")
	a.stop()

	a.log.logger.core.Close()
	a.config.store = nil
}
