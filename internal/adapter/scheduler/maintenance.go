package scheduler

import (
	"context"
	"database/sql"
	"log/slog"

	"gymlog/internal/platform/sqlite"
)

// Maintenance выполняет периодическое обслуживание хранилища:
// checkpoint WAL-журнала и PRAGMA optimize.
type Maintenance struct {
	db     *sqlite.Service
	logger *slog.Logger
}

// NewMaintenance создает задачу обслуживания хранилища.
func NewMaintenance(db *sqlite.Service, logger *slog.Logger) *Maintenance {
	if logger == nil {
		logger = slog.Default()
	}
	return &Maintenance{db: db, logger: logger}
}

// Run выполняет одну итерацию обслуживания. Реализует JobFunc.
func (m *Maintenance) Run(ctx context.Context) error {
	var busy, logged, checkpointed int64
	// wal_checkpoint возвращает строку результата, поэтому выполняется как чтение.
	err := m.db.Query(ctx, "PRAGMA wal_checkpoint(TRUNCATE)", func(rows *sql.Rows) error {
		if rows.Next() {
			return rows.Scan(&busy, &logged, &checkpointed)
		}
		return rows.Err()
	})
	if err != nil {
		return err
	}

	if err := m.db.Query(ctx, "PRAGMA optimize", nil); err != nil {
		return err
	}

	m.logger.Info("store maintenance completed",
		slog.Int64("wal_busy", busy),
		slog.Int64("wal_log_frames", logged),
		slog.Int64("wal_checkpointed", checkpointed),
	)
	return nil
}
