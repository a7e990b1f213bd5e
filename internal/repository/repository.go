package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

// NodesTable holds one row per document: (project, collection, key) -> jsonb body.
const NodesTable = "nodes"

type Repository struct {
	DB   *sql.DB
	Goqu *goqu.Database
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		DB:   db,
		Goqu: goqu.New("postgres", db),
	}
}

// Nodes selects the document rows matching scope, ordered by collection and key.
func (r *Repository) Nodes(scope Scope) *goqu.SelectDataset {
	return r.Goqu.From(NodesTable).
		Select("collection", "key", "body").
		Where(scope.Ex()).
		Order(goqu.C("collection").Asc(), goqu.C("key").Asc())
}

// WithTransaction runs fn inside a transaction. It commits when fn returns nil and rolls
// back on error or panic.
func WithTransaction(ctx context.Context, db *goqu.Database, fn func(tx *goqu.TxDatabase) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	err = fn(tx)
	return
}
