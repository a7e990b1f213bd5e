package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Pool bounds the connections one depot process keeps to the node store. The notification
// listener connects outside the pool.
type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxIdleTime time.Duration
}

var DefaultPool = Pool{MaxOpen: 10, MaxIdle: 5, MaxIdleTime: 5 * time.Minute}

func NewPostgresConnection(ctx context.Context, dbURL string, pool Pool) (*sql.DB, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("could not open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpen)
	db.SetMaxIdleConns(pool.MaxIdle)
	db.SetConnMaxIdleTime(pool.MaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not ping the node store: %w", err)
	}

	return db, nil
}
