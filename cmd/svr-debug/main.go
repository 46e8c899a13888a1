package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/vexlab/svr-debug/internal/api"
	"github.com/vexlab/svr-debug/internal/config"
	"github.com/vexlab/svr-debug/internal/dispatcher"
	"github.com/vexlab/svr-debug/internal/influx"
	"github.com/vexlab/svr-debug/internal/logging"
	"github.com/vexlab/svr-debug/internal/monitor"
	intOtel "github.com/vexlab/svr-debug/internal/otel"
	"github.com/vexlab/svr-debug/internal/overlay"
	"github.com/vexlab/svr-debug/internal/session"
	"github.com/vexlab/svr-debug/internal/sim"
	"github.com/vexlab/svr-debug/internal/storage"
	"github.com/vexlab/svr-debug/pkg/core"
)

// version info - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.1.0"
	BuildDate      string = "unknown"

	ToolName string = "svr_debug"
)

// global services
var (
	SessionStartTime time.Time = time.Now()

	LogFilePath string
	LogFile     *os.File

	SlogManager  *logging.SlogManager
	Logger       *slog.Logger
	OTelProvider *intOtel.Provider

	sessionContext  *session.Context
	eventDispatcher *dispatcher.Dispatcher
	monitorService  *monitor.Service
	influxManager   *influx.Manager
	sinks           []storage.Sink

	uploadWG sync.WaitGroup
)

func main() {
	configDir := flag.String("config", ".", "directory containing svr_debug.cfg.json")
	duration := flag.Duration("duration", 0, "stop after this long (0 = run until interrupted)")
	demo := flag.Bool("demo", true, "drive a simulated device rig with scripted input")
	flag.Parse()

	setup(*configDir)

	args := flag.Args()
	if len(args) > 0 {
		var err error
		switch strings.ToLower(args[0]) {
		case "sessions":
			err = runSessions()
		case "dump":
			err = runDump(args[1:])
		default:
			err = fmt.Errorf("unknown command: %s", args[0])
		}
		if err != nil {
			Logger.Error("Command failed", "command", args[0], "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*duration, *demo); err != nil {
		Logger.Error("Overlay exited with error", "error", err)
		os.Exit(1)
	}
}

// setup loads config and brings up logging and OTel. Called before any
// command runs.
func setup(configDir string) {
	// bootstrap logging to stdout until the log file is open
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := viper.GetString("logsDir")
	if _, err := os.Stat(logsDir); os.IsNotExist(err) {
		os.MkdirAll(logsDir, 0755)
	}

	LogFilePath = logging.LogFilePath(logsDir, ToolName, SessionStartTime)

	var err error
	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
	}

	if viper.GetBool("otel.enabled") {
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      true,
			ServiceName:  viper.GetString("otel.serviceName"),
			BatchTimeout: viper.GetDuration("otel.batchTimeout"),
			LogWriter:    LogFile,
			Endpoint:     viper.GetString("otel.endpoint"),
			Insecure:     viper.GetBool("otel.insecure"),
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "file", LogFilePath)
		}
	}

	// re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(LogFile, viper.GetString("logLevel"), otelLogProvider)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath, "version", CurrentVersion, "buildDate", BuildDate)
}

func run(duration time.Duration, demo bool) error {
	bindings, err := config.Bindings()
	if err != nil {
		return fmt.Errorf("bindings config: %w", err)
	}
	output, err := config.Output()
	if err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	storageCfg, err := config.Storage()
	if err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	dbLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	sinks, err = storage.NewSinks(storageCfg, Logger, dbLog)
	if err != nil {
		return fmt.Errorf("storage sinks: %w", err)
	}
	for _, s := range sinks {
		if err := s.Init(); err != nil {
			return fmt.Errorf("sink init: %w", err)
		}
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(); err != nil {
				Logger.Error("Sink close failed", "error", err)
			}
		}
	}()

	hostName, _ := os.Hostname()
	sessionContext = session.NewContext(viper.GetString("sessionTag"), hostName, CurrentVersion)
	sessionContext.Get().StartTime = SessionStartTime

	for _, s := range sinks {
		if err := s.StartSession(sessionContext.Get()); err != nil {
			Logger.Error("Sink session start failed", "error", err)
		}
	}

	if viper.GetBool("influx.enabled") {
		influxManager = influx.NewManager(dbLog, filepath.Join(viper.GetString("logsDir"), "influx_backup.gz"))
		if err := influxManager.Connect(); err != nil {
			Logger.Error("InfluxDB connect failed", "error", err)
			influxManager = nil
		}
	}

	simHost := sim.NewHost(Logger, SessionStartTime)
	if demo {
		connectDemoRig(simHost)
	}

	ov := overlay.New(overlay.Dependencies{
		Provider:       simHost,
		Renderer:       simHost,
		Capturer:       simHost,
		SessionContext: sessionContext,
		Log:            Logger,
		Sinks:          sinks,
		Output:         output,
		Uploader:       queueUpload,
	})

	eventDispatcher, err = dispatcher.New(logging.NewDispatcherLogger(Logger))
	if err != nil {
		return fmt.Errorf("dispatcher: %w", err)
	}
	ov.Register(eventDispatcher)
	binder := overlay.NewBinder(bindings)

	monitorService = monitor.NewService(monitor.Dependencies{
		Log:            Logger,
		SessionContext: sessionContext,
		Collect: func() monitor.Stats {
			s := ov.Stats()
			return monitor.Stats{
				TickCount:   s.TickCount,
				Devices:     s.Devices,
				Markers:     s.Markers,
				BufferDepth: s.BufferDepth,
				Visible:     s.Visible,
				Recording:   s.Recording,
			}
		},
		Devices:   func() []core.TrackedDevice { return ov.Devices().All() },
		Influx:    influxManager,
		StatusDir: viper.GetString("logsDir"),
		Interval:  viper.GetDuration("monitor.interval"),
	})
	monitorService.Start()
	defer monitorService.Stop()

	go checkServerStatus()

	demoDone := make(chan struct{})
	defer close(demoDone)
	if demo {
		go runDemoScript(simHost, demoDone)
	}

	tickRate := viper.GetInt("tickRate")
	if tickRate <= 0 {
		tickRate = 90
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var deadline <-chan time.Time
	if duration > 0 {
		deadline = time.After(duration)
	}

	Logger.Info("Overlay running", "tickRate", tickRate, "session", sessionContext.Get().Tag)

loop:
	for {
		select {
		case <-stop:
			Logger.Info("Interrupted")
			break loop
		case <-deadline:
			Logger.Info("Duration elapsed")
			break loop
		case now := <-ticker.C:
			simHost.Advance(now)
			drainInputs(simHost, binder)
			ov.Tick()
		}
	}

	return shutdown(ov)
}

// drainInputs forwards every pending host input to the dispatcher. Runs on
// the frame thread so handlers mutate overlay state synchronously.
func drainInputs(simHost *sim.Host, binder *overlay.Binder) {
	for {
		select {
		case in := <-simHost.Inputs().Receive():
			ev, ok := binder.Resolve(in)
			if !ok {
				continue
			}
			if _, err := eventDispatcher.Dispatch(ev); err != nil {
				Logger.Error("Event failed", "command", ev.Command, "error", err)
			}
		default:
			return
		}
	}
}

// shutdown exports whatever is still buffered, ends the session on every
// sink and uploads any produced files.
func shutdown(ov *overlay.Overlay) error {
	var exported []string

	// the export handler uploads the CSV itself via queueUpload
	if ov.BufferLen() > 0 {
		if _, err := eventDispatcher.Dispatch(dispatcher.Event{Command: overlay.CommandExportCSV}); err != nil {
			Logger.Error("Final CSV export failed", "error", err)
		}
	}

	for _, s := range sinks {
		if err := s.EndSession(); err != nil {
			Logger.Error("Sink session end failed", "error", err)
			continue
		}
		if exp, ok := s.(storage.Exportable); ok {
			if path := exp.ExportedFilePath(); path != "" {
				exported = append(exported, path)
			}
		}
	}

	uploadExports(exported)
	uploadWG.Wait()

	if OTelProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := SlogManager.Flush(ctx); err != nil {
			Logger.Error("Log flush failed", "error", err)
		}
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Error("OTel shutdown failed", "error", err)
		}
	}

	return nil
}

// queueUpload pushes one exported file to the review server in the
// background. shutdown waits for in-flight uploads before returning.
func queueUpload(path string) {
	if viper.GetString("api.serverUrl") == "" {
		return
	}
	uploadWG.Add(1)
	go func() {
		defer uploadWG.Done()
		uploadExports([]string{path})
	}()
}

// uploadExports pushes produced files to the review server when one is
// configured.
func uploadExports(paths []string) {
	serverURL := viper.GetString("api.serverUrl")
	if serverURL == "" || len(paths) == 0 {
		return
	}

	client := api.New(serverURL, viper.GetString("api.apiKey"))
	cur := sessionContext.Get()
	for _, path := range paths {
		kind := "csv"
		if strings.Contains(path, ".json") {
			kind = "archive"
		}
		err := client.Upload(path, api.UploadMetadata{
			HostName:        cur.HostName,
			SessionTag:      cur.Tag,
			SessionDuration: sessionContext.Elapsed(time.Now()),
			Kind:            kind,
		})
		if err != nil {
			Logger.Error("Upload failed", "path", path, "error", err)
		} else {
			Logger.Info("Uploaded export", "path", path)
		}
	}
}

func checkServerStatus() {
	serverURL := viper.GetString("api.serverUrl")
	if serverURL == "" {
		return
	}
	if err := api.New(serverURL, "").Healthcheck(); err != nil {
		Logger.Info("Review server is offline")
	} else {
		Logger.Info("Review server is online")
	}
}

// connectDemoRig attaches a standard room setup: one base station, an HMD
// and two controllers sweeping figure-eights.
func connectDemoRig(h *sim.Host) {
	h.Connect(core.TrackedDevice{Index: 0, Class: core.ClassHMD, Serial: "SIM-HMD-001"},
		sim.Bob(1.72, 0.04, 5))
	h.Connect(core.TrackedDevice{Index: 1, Class: core.ClassController, Serial: "SIM-CTRL-L"},
		sim.FigureEight(0.45, 1.15, 4))
	h.Connect(core.TrackedDevice{Index: 2, Class: core.ClassController, Serial: "SIM-CTRL-R"},
		sim.FigureEight(0.45, 1.25, 3))
	h.Connect(core.TrackedDevice{Index: 3, Class: core.ClassBaseStation, Serial: "SIM-LHB-001"},
		sim.Static(core.Pose{
			Position:    core.Position3D{X: 2.0, Y: 2.3, Z: 2.0},
			Orientation: core.IdentityQuaternion,
		}))
}

// runDemoScript presses the record trigger once a second and drops one
// controller halfway through a ten second cycle, then reconnects it. Returns
// when done is closed.
func runDemoScript(h *sim.Host, done <-chan struct{}) {
	record := viper.GetInt("bindings.recordButton")
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	tick := 0
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			tick++
			h.PressButton(2, record, time.Now())

			switch tick % 10 {
			case 5:
				h.Disconnect(1)
			case 7:
				h.Connect(core.TrackedDevice{Index: 1, Class: core.ClassController, Serial: "SIM-CTRL-L"},
					sim.FigureEight(0.45, 1.15, 4))
			}
		}
	}
}
