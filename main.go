package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/overlay"
	"github.com/ttpr0/go-walkshed/pipeline"
)

var config_file string
var CONFIG *Config

var rootCmd = &cobra.Command{
	Use:          "walkshed",
	Short:        "Walking distance isochrones around transit stops",
	Long:         "Computes walking distance isochrones around transit stops on a pedestrian network and trims parcel layers by water and natural areas.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig(config_file)
		if err != nil {
			return err
		}
		CONFIG = config
		return InitLogger(config.Log)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

var isochronesCmd = &cobra.Command{
	Use:   "isochrones",
	Short: "Compute the isochrones of all configured batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return _Run(ctx, CONFIG, true, false)
	},
}

var trimCmd = &cobra.Command{
	Use:   "trim",
	Short: "Erase water and natural areas from the target layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return _Run(ctx, CONFIG, false, true)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Compute isochrones and trim the target layers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return _Run(ctx, CONFIG, true, true)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve isochrones on the loaded network over http",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return _Serve(ctx, CONFIG)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&config_file, "config", "", "config file (default ./config.yaml)")
	rootCmd.AddCommand(isochronesCmd, trimCmd, runCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//**********************************************************
// batch runs
//**********************************************************

func _Run(ctx context.Context, config *Config, isochrones bool, trim bool) error {
	report := pipeline.NewReport()
	zap.L().Info("starting run", zap.String("run_id", report.RunID))

	sink, err := OpenSink(ctx, config)
	if err != nil {
		return err
	}
	defer sink.Close()

	if isochrones {
		manager, err := NewManager(ctx, config)
		if err != nil {
			return err
		}
		isos, err := manager.RunIsochrones(ctx, report)
		if err != nil {
			return err
		}
		if err := sink.SaveIsochrones(ctx, report.RunID, config.Output.Name, isos); err != nil {
			return err
		}
	}
	if trim {
		exclusions, err := LoadLayers(config.Overlay.Exclusions, config.Overlay.SRID)
		if err != nil {
			return err
		}
		targets, err := LoadLayers(config.Overlay.Targets, config.Overlay.SRID)
		if err != nil {
			return err
		}
		engine := overlay.NewEngine(overlay.Options{
			GridSize:     config.Overlay.GridSize,
			RepairInputs: config.Overlay.RepairInputs,
			Workers:      config.Overlay.Workers,
		})
		trimmed, err := pipeline.RunTrim(ctx, engine, exclusions, targets, config.Overlay.Suffix, report)
		if err != nil {
			return err
		}
		if err := sink.SaveLayers(ctx, report.RunID, trimmed); err != nil {
			return err
		}
	}

	if err := report.Write(sink.ReportFile()); err != nil {
		return err
	}
	zap.L().Info("finished run",
		zap.String("run_id", report.RunID),
		zap.Int("isochrones", report.Isochrones),
		zap.Int("snap_failures", len(report.SnapFailures)),
		zap.Strings("failed_batches", report.FailedBatches),
		zap.String("report", sink.ReportFile()),
	)
	return nil
}

//**********************************************************
// server
//**********************************************************

func NewRouter(manager *Manager, cors_origins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cors_origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	MapGet(r, "/health", manager.HandleHealthRequest)
	MapPost(r, "/v0/isochrone", manager.HandleIsochroneRequest)
	MapGet(r, "/v0/isochrone/origin", manager.HandleOriginIsochroneRequest)
	return r
}

func _Serve(ctx context.Context, config *Config) error {
	manager, err := NewManager(ctx, config)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(config.Server.Port),
		Handler:           NewRouter(manager, config.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		zap.L().Info("listening", zap.String("addr", server.Addr))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		return eris.Wrap(err, "serve: shutdown")
	}
	zap.L().Info("server stopped")
	return nil
}
