package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/heatgrid/internal/api"
	"github.com/banshee-data/heatgrid/internal/config"
	"github.com/banshee-data/heatgrid/internal/frame"
	"github.com/banshee-data/heatgrid/internal/fsutil"
	"github.com/banshee-data/heatgrid/internal/pipeline"
	"github.com/banshee-data/heatgrid/internal/serialmux"
	"github.com/banshee-data/heatgrid/internal/timeutil"
	"github.com/banshee-data/heatgrid/internal/version"
)

var (
	devMode        = flag.Bool("dev", false, "Replay fixture readings instead of opening the serial port")
	disableSerial  = flag.Bool("disable-serial", false, "Run without a sensor board; readings arrive over HTTP only")
	listen         = flag.String("listen", ":8080", "Listen address")
	configPath     = flag.String("config", config.DefaultConfigPath, "Path to the heatmap configuration file")
	preset         = flag.String("preset", "", "Name of a deployment preset in "+config.PresetDir+" (overrides -config)")
	serialPort     = flag.String("serial-port", "", "Serial port to use (overrides the config file, ignored in dev mode)")
	fixturesPath   = flag.String("fixtures", "config/fixtures/readings.txt", "Readings replayed in dev mode")
	replayInterval = flag.Duration("replay-interval", 500*time.Millisecond, "Delay between replayed fixture lines")
	showVersion    = flag.Bool("version", false, "Print version information and exit")
)

// portOptions converts the configured serial settings.
func portOptions(cfg *config.HeatmapConfig) serialmux.PortOptions {
	return serialmux.PortOptions{
		BaudRate: cfg.GetSerialBaudRate(),
		DataBits: cfg.GetSerialDataBits(),
		StopBits: cfg.GetSerialStopBits(),
		Parity:   cfg.GetSerialParity(),
	}
}

// loadConfig reads the preset named by -preset, or the -config file.
func loadConfig() (*config.HeatmapConfig, error) {
	if *preset != "" {
		return config.LoadPreset(config.PresetDir, *preset)
	}
	return config.LoadHeatmapConfig(*configPath)
}

// openSerial picks the board connection for the current flags.
func openSerial(cfg *config.HeatmapConfig, fsys fsutil.FileSystem) (serialmux.SerialMuxInterface, error) {
	switch {
	case *disableSerial:
		return serialmux.NewDisabledSerialMux(), nil
	case *devMode:
		f, err := fsys.Open(*fixturesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open fixtures file: %w", err)
		}
		defer f.Close()
		lines, err := serialmux.ReadFixture(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read fixtures file: %w", err)
		}
		return serialmux.NewMockSerialMux(lines, *replayInterval, timeutil.RealClock{}), nil
	}
	m, err := serialmux.NewRealSerialMux(cfg.GetSerialPort(), portOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.GetSerialPort(), err)
	}
	return m, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get())
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *serialPort != "" {
		cfg.SetSerialPort(*serialPort)
	}

	p, err := pipeline.FromConfig(cfg, frame.NewStore(), timeutil.RealClock{})
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}
	log.Printf("%s: %s reconstruction on a %dx%d grid, %d sensors",
		version.Get(), cfg.GetStrategy(), cfg.GetGrid().W, cfg.GetGrid().H, len(cfg.GetLayout()))

	board, err := openSerial(cfg, fsutil.OSFileSystem{})
	if err != nil {
		log.Fatalf("failed to create sensor port: %v", err)
	}
	defer board.Close()

	if err := board.Initialise(cfg.GetSerialInitCommands()); err != nil {
		log.Fatalf("failed to initialise sensor board: %v", err)
	}

	handler := serialmux.NewEventHandler(p, cfg.GetKeyPrefix())
	server := api.NewServer(p, cfg, board)
	server.SetBoardState(handler.BoardState)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run the monitor routine to manage IO on the serial port
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := board.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("failed to monitor serial port: %v", err)
		}
		log.Print("monitor routine terminated")
	}()

	// feed board lines through the pipeline
	wg.Add(1)
	go func() {
		defer wg.Done()
		id, c := board.Subscribe()
		defer board.Unsubscribe(id)
		handler.Consume(ctx, c)
		log.Printf("subscribe routine terminated")
	}()

	// push new frames to websocket clients
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.RunPush(ctx)
		log.Printf("push routine terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		mux.Handle("/", server.Handler())
		server.AttachAdminRoutes(mux)
		board.AttachAdminRoutes(mux)

		srv := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := srv.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
