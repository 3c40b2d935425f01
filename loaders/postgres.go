package loaders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/batchline/batchline"
)

// Postgres bulk-loads batches into a table with the COPY protocol. Column
// names come from the batch schema, so the last stage of the pipeline
// defines the target row shape.
type Postgres struct {
	conn  *pgx.Conn
	table string
	log   *slog.Logger
}

// NewPostgres connects to the given DSN and targets the given table.
func NewPostgres(ctx context.Context, dsn, table string, log *slog.Logger) (*Postgres, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("loaders: postgres connect: %w", err)
	}
	return &Postgres{conn: conn, table: table, log: log}, nil
}

func (p *Postgres) Load(ctx context.Context, batch *batchline.Batch) error {
	rows := make([][]any, batch.NumRows())
	for i := 0; i < batch.NumRows(); i++ {
		rows[i] = []any(batch.Row(i))
	}

	count, err := p.conn.CopyFrom(
		ctx,
		pgx.Identifier{p.table},
		batch.Schema().FieldNames(),
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("loaders: copy into %s: %w", p.table, err)
	}
	p.log.Debug("copied rows", "table", p.table, "count", count)
	return nil
}

func (p *Postgres) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}
