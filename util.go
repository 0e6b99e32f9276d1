package main

import (
	"context"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/output"
	"github.com/ttpr0/go-walkshed/overlay"
	"github.com/ttpr0/go-walkshed/store"
)

//**********************************************************
// result sink
//**********************************************************

// Sink writes run results to the output directory and, if configured, to PostGIS.
type Sink struct {
	writer *output.Writer
	store  *store.PostgresStore
	pool   *pgxpool.Pool
	report string
}

func OpenSink(ctx context.Context, config *Config) (*Sink, error) {
	writer, err := output.NewWriter(config.Output.Dir, config.Output.Formats, config.Output.Schema)
	if err != nil {
		return nil, err
	}
	sink := &Sink{
		writer: writer,
		report: filepath.Join(config.Output.Dir, config.Output.Report),
	}
	if config.Store.DatabaseURL == "" {
		return sink, nil
	}
	pool, err := store.Connect(ctx, config.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sink.pool = pool
	sink.store = store.NewPostgresStore(pool, config.Overlay.SRID)
	if err := sink.store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return sink, nil
}

func (self *Sink) SaveIsochrones(ctx context.Context, run_id string, name string, isos []isochrone.Isochrone) error {
	if _, err := self.writer.WriteIsochrones(name, isos); err != nil {
		return err
	}
	if self.store != nil {
		if _, err := self.store.SaveIsochrones(ctx, run_id, isos); err != nil {
			return err
		}
	}
	return nil
}

func (self *Sink) SaveLayers(ctx context.Context, run_id string, layers []overlay.Layer) error {
	for _, layer := range layers {
		if _, err := self.writer.WriteLayer(layer); err != nil {
			return err
		}
		if self.store != nil {
			if _, err := self.store.SaveLayer(ctx, run_id, layer); err != nil {
				return err
			}
		}
	}
	return nil
}

func (self *Sink) ReportFile() string {
	return self.report
}

func (self *Sink) Close() {
	if self.pool != nil {
		self.pool.Close()
	}
	zap.L().Debug("closed result sink")
}
