// Package store writes isochrones and trimmed parcel layers to PostGIS.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/ttpr0/go-walkshed/isochrone"
	"github.com/ttpr0/go-walkshed/overlay"
)

// Pool is the subset of pgxpool.Pool used by the store.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Connect opens a connection pool and checks that the database is reachable.
func Connect(ctx context.Context, database_url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, database_url)
	if err != nil {
		return nil, eris.Wrap(err, "store: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping database")
	}
	return pool, nil
}

type PostgresStore struct {
	pool Pool
	srid int
}

func NewPostgresStore(pool Pool, srid int) *PostgresStore {
	return &PostgresStore{pool: pool, srid: srid}
}

// Migrate creates the result tables if they do not exist.
func (self *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS walkshed_isochrones (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			origin_id TEXT NOT NULL,
			break DOUBLE PRECISION NOT NULL,
			batch TEXT NOT NULL,
			attributes JSONB NOT NULL,
			geom geometry(MultiPolygon, %d) NOT NULL
		)`, self.srid),
		`CREATE INDEX IF NOT EXISTS walkshed_isochrones_run_idx ON walkshed_isochrones (run_id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS walkshed_parcels (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			layer TEXT NOT NULL,
			feature_id BIGINT NOT NULL,
			attributes JSONB NOT NULL,
			geom geometry(MultiPolygon, %d) NOT NULL
		)`, self.srid),
		`CREATE INDEX IF NOT EXISTS walkshed_parcels_run_idx ON walkshed_parcels (run_id, layer)`,
	}
	for _, statement := range statements {
		if _, err := self.pool.Exec(ctx, statement); err != nil {
			return eris.Wrap(err, "store: migrate")
		}
	}
	return nil
}

// SaveIsochrones inserts all non empty isochrones of a run in one transaction.
//
// Every geometry must carry the srid of the store.
func (self *PostgresStore) SaveIsochrones(ctx context.Context, run_id string, isochrones []isochrone.Isochrone) (int, error) {
	for i := range isochrones {
		if isochrones[i].IsEmpty() {
			continue
		}
		if err := self._CheckSRID("isochrone "+isochrones[i].OriginID, isochrones[i].Geometry); err != nil {
			return 0, err
		}
	}
	tx, err := self.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin transaction")
	}

	count := 0
	for i := range isochrones {
		iso := &isochrones[i]
		if iso.IsEmpty() {
			continue
		}
		attributes, geometry, err := self._Encode(iso.Attributes, iso.Geometry)
		if err != nil {
			_Rollback(ctx, tx)
			return 0, eris.Wrapf(err, "store: encode isochrone %s", iso.OriginID)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO walkshed_isochrones (run_id, origin_id, break, batch, attributes, geom)
			VALUES ($1, $2, $3, $4, $5, ST_Multi(ST_GeomFromEWKB($6)))
		`, run_id, iso.OriginID, iso.Break, iso.Batch, attributes, geometry)
		if err != nil {
			_Rollback(ctx, tx)
			return 0, eris.Wrapf(err, "store: insert isochrone %s", iso.OriginID)
		}
		count += 1
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "store: commit isochrones")
	}
	zap.L().Info("store: saved isochrones",
		zap.String("run_id", run_id),
		zap.Int("count", count),
	)
	return count, nil
}

// SaveLayer inserts every feature of a layer in one transaction.
func (self *PostgresStore) SaveLayer(ctx context.Context, run_id string, layer overlay.Layer) (int, error) {
	if layer.SRID != self.srid {
		return 0, &overlay.CoordinateSystemMismatchError{Expected: self.srid, Actual: layer.SRID, Layer: layer.Name}
	}
	for i := range layer.Features {
		name := fmt.Sprintf("%s/%d", layer.Name, layer.Features[i].ID)
		if err := self._CheckSRID(name, layer.Features[i].Geometry); err != nil {
			return 0, err
		}
	}
	tx, err := self.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "store: begin transaction")
	}

	for i := range layer.Features {
		feature := &layer.Features[i]
		attributes, geometry, err := self._Encode(feature.Attributes, feature.Geometry)
		if err != nil {
			_Rollback(ctx, tx)
			return 0, eris.Wrapf(err, "store: encode feature %d of %s", feature.ID, layer.Name)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO walkshed_parcels (run_id, layer, feature_id, attributes, geom)
			VALUES ($1, $2, $3, $4, ST_Multi(ST_GeomFromEWKB($5)))
		`, run_id, layer.Name, feature.ID, attributes, geometry)
		if err != nil {
			_Rollback(ctx, tx)
			return 0, eris.Wrapf(err, "store: insert feature %d of %s", feature.ID, layer.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "store: commit %s", layer.Name)
	}
	zap.L().Info("store: saved layer",
		zap.String("run_id", run_id),
		zap.String("layer", layer.Name),
		zap.Int("count", layer.Len()),
	)
	return layer.Len(), nil
}

func (self *PostgresStore) _Encode(attributes map[string]any, g *geom.MultiPolygon) ([]byte, []byte, error) {
	if attributes == nil {
		attributes = map[string]any{}
	}
	attr_data, err := json.Marshal(attributes)
	if err != nil {
		return nil, nil, err
	}
	if g == nil {
		g = overlay.EmptyGeometry(self.srid)
	}
	if err := self._CheckSRID("", g); err != nil {
		return nil, nil, err
	}
	geom_data, err := ewkb.Marshal(g, binary.LittleEndian)
	if err != nil {
		return nil, nil, err
	}
	return attr_data, geom_data, nil
}

func (self *PostgresStore) _CheckSRID(name string, g *geom.MultiPolygon) error {
	if g != nil && g.SRID() != self.srid {
		return &overlay.CoordinateSystemMismatchError{Layer: name, Expected: self.srid, Actual: g.SRID()}
	}
	return nil
}

func _Rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		zap.L().Warn("store: rollback failed", zap.Error(err))
	}
}
