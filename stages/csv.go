package stages

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/batchline/batchline"
)

// NewCSV creates the csv-stage: each incoming text record is split on the
// configured delimiter into the declared columns, producing a multi-column
// text batch.
func NewCSV() batchline.Transformer {
	return batchline.FromTyped[batchline.CSVStageConfig](&csvStage{})
}

type csvStage struct{}

func (s *csvStage) Init(ctx context.Context, cfg batchline.CSVStageConfig, log *slog.Logger) error {
	return nil
}

func (s *csvStage) Transform(ctx context.Context, batch *batchline.Batch, cfg batchline.CSVStageConfig, log *slog.Logger) (*batchline.Batch, error) {
	it, err := batchline.TextRecords(batch)
	if err != nil {
		return nil, err
	}
	records, err := batchline.CollectText(it)
	if err != nil {
		return nil, err
	}

	delimiter := ','
	if cfg.Delimiter != "" {
		delimiter = []rune(cfg.Delimiter)[0]
	}

	rows := make([]batchline.Row, 0, len(records))
	for i, record := range records {
		reader := csv.NewReader(strings.NewReader(record))
		reader.Comma = delimiter
		reader.TrimLeadingSpace = cfg.TrimSpace
		values, err := reader.Read()
		if err != nil {
			return nil, fmt.Errorf("stages: csv: record %d: %w", i, err)
		}
		if len(values) != len(cfg.Columns) {
			return nil, fmt.Errorf("stages: csv: record %d has %d values, want %d", i, len(values), len(cfg.Columns))
		}
		row := make(batchline.Row, len(values))
		for j, v := range values {
			if cfg.TrimSpace {
				v = strings.TrimSpace(v)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}

	fields := make([]batchline.Field, len(cfg.Columns))
	for i, name := range cfg.Columns {
		fields[i] = batchline.Field{Name: name, Type: batchline.TypeText}
	}
	return batchline.NewBatch(batchline.Schema{Fields: fields}, rows)
}

func (s *csvStage) Close(ctx context.Context, cfg batchline.CSVStageConfig, log *slog.Logger) error {
	return nil
}
