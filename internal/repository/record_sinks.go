package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"SegPull/internal/domain/models"
	"SegPull/internal/domain/repository"
	pkgkafka "SegPull/pkg/kafka"
)

// recordMessage is the wire form of one exported record.
type recordMessage struct {
	RunID      string               `json:"run_id"`
	ExportedAt time.Time            `json:"exported_at"`
	Record     models.SegmentRecord `json:"record"`
}

type batchPublisher interface {
	PublishBatch(ctx context.Context, messages []pkgkafka.Message) error
	Close() error
}

// KafkaRecordPublisher publishes one message per record, keyed by report code.
type KafkaRecordPublisher struct {
	producer batchPublisher
	now      func() time.Time
}

// NewKafkaRecordPublisher creates Kafka publisher.
func NewKafkaRecordPublisher(producer *pkgkafka.Producer) repository.RecordSink {
	return &KafkaRecordPublisher{producer: producer, now: time.Now}
}

func (p *KafkaRecordPublisher) Name() string { return "kafka" }

func (p *KafkaRecordPublisher) Write(ctx context.Context, runID string, records []models.SegmentRecord) error {
	if len(records) == 0 {
		return nil
	}
	ts := p.now().UTC()
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Code),
			Value: recordMessage{RunID: runID, ExportedAt: ts, Record: r},
		}
	}
	return p.producer.PublishBatch(ctx, msgs)
}

func (p *KafkaRecordPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

type batchInserter interface {
	InitSchema(ctx context.Context, stmts []string) error
	InsertBatch(ctx context.Context, insert string, rows [][]any) error
	Close() error
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseRecordStore inserts one row per record.
type ClickHouseRecordStore struct {
	db    batchInserter
	table string
	now   func() time.Time
}

// NewClickHouseRecordStore creates the store and ensures its table exists.
func NewClickHouseRecordStore(ctx context.Context, db batchInserter, table string) (repository.RecordSink, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &ClickHouseRecordStore{db: db, table: table, now: time.Now}
	if err := db.InitSchema(ctx, s.schema()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ClickHouseRecordStore) Name() string { return "clickhouse" }

func (s *ClickHouseRecordStore) schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	run_id String,
	exported_at DateTime64(3, 'UTC'),
	code String,
	segment_size String,
	year Nullable(Int32),
	fields String
) ENGINE = MergeTree
ORDER BY (code, segment_size, exported_at)`, s.table)}
}

func (s *ClickHouseRecordStore) insertStmt() string {
	return fmt.Sprintf("INSERT INTO %s (run_id, exported_at, code, segment_size, year, fields) VALUES (?, ?, ?, ?, ?, ?)", s.table)
}

// rows renders records as insert arguments. fields holds the record's
// field map as JSON; year is nil when the record has none.
func (s *ClickHouseRecordStore) rows(runID string, records []models.SegmentRecord) ([][]any, error) {
	ts := s.now().UTC()
	out := make([][]any, 0, len(records))
	for _, r := range records {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return nil, fmt.Errorf("encode fields of %s/%s: %w", r.Code, r.SegmentSize, err)
		}
		var year *int32
		if y, ok := r.Year.Int64(); ok {
			v := int32(y)
			year = &v
		}
		out = append(out, []any{runID, ts, r.Code, r.SegmentSize, year, string(fields)})
	}
	return out, nil
}

func (s *ClickHouseRecordStore) Write(ctx context.Context, runID string, records []models.SegmentRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows, err := s.rows(runID, records)
	if err != nil {
		return err
	}
	return s.db.InsertBatch(ctx, s.insertStmt(), rows)
}

func (s *ClickHouseRecordStore) Close() error {
	return s.db.Close()
}
