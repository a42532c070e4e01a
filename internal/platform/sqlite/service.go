package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"gymlog/internal/shared"
)

// Querier объединяет методы выполнения запросов, общие для соединения пула
// и тела транзакции. Позволяет репозиториям использовать один интерфейс
// независимо от того, выполняется ли statement в транзакции.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Убедимся на этапе компиляции, что Conn реализует интерфейс
var _ Querier = (*Conn)(nil)

// Result описывает результат выполнения statement записи.
type Result struct {
	// RowsAffected - количество затронутых строк
	RowsAffected int64
	// LastInsertID - идентификатор вставленной строки (имеет смысл только после INSERT)
	LastInsertID int64
}

// RowScanner обрабатывает строки результата чтения.
// Вызывается ровно один раз с открытым курсором.
type RowScanner func(rows *sql.Rows) error

// ErrorHook уведомляется о каждом сбое statement - для передачи
// событий наблюдаемости внешним подписчикам.
type ErrorHook func(err error)

// Service выполняет параметризованные statements поверх пула соединений.
//
// Контракт: соединение берётся из пула перед выполнением statement и
// возвращается в пул ровно один раз на любом пути выхода (успех или сбой).
// Сбой statement помечается shared.ErrQuery и передаётся в ErrorHook.
type Service struct {
	pool    *Pool
	log     *slog.Logger
	onError ErrorHook
}

// ServiceOption настраивает Service.
type ServiceOption func(*Service)

// WithLogger задает логгер сервиса.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithErrorHook задает обработчик сбоев statement.
func WithErrorHook(hook ErrorHook) ServiceOption {
	return func(s *Service) { s.onError = hook }
}

// NewService создает сервис выполнения запросов поверх пула.
func NewService(pool *Pool, opts ...ServiceOption) *Service {
	s := &Service{pool: pool, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Pool возвращает пул соединений сервиса (для метрик и обслуживания).
func (s *Service) Pool() *Pool {
	return s.pool
}

// Query выполняет statement чтения с позиционными параметрами.
// Параметры всегда биндятся драйвером и никогда не интерполируются в строку.
// Строки результата передаются в scan; соединение возвращается в пул
// на любом пути выхода.
func (s *Service) Query(ctx context.Context, query string, scan RowScanner, args ...any) error {
	if err := validateStatement(query); err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(conn)

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return s.fail(query, err)
	}
	defer func() { _ = rows.Close() }()

	if scan != nil {
		if err := scan(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return s.fail(query, err)
	}
	return nil
}

// Execute выполняет statement записи (INSERT/UPDATE/DELETE) с позиционными
// параметрами. Контракт возврата соединения и уведомления о сбоях тот же,
// что у Query.
func (s *Service) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if err := validateStatement(query); err != nil {
		return Result{}, err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	defer s.pool.Release(conn)

	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, s.fail(query, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, s.fail(query, err)
	}
	// LastInsertId у SQLite не возвращает ошибку, но контракт database/sql её допускает
	id, _ := res.LastInsertId()

	return Result{RowsAffected: affected, LastInsertID: id}, nil
}

// WithinTx выполняет fn внутри транзакции на одном соединении.
// BEGIN, все statements тела и COMMIT выполняются на соединении,
// переданном в fn; получение второго соединения внутри тела не поддерживается.
//
// При ошибке из BEGIN, тела или COMMIT выполняется ROLLBACK (его собственная
// ошибка проглатывается) и исходная ошибка возвращается вызывающему.
// Соединение возвращается в пул на любом пути выхода.
func (s *Service) WithinTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Release(conn)

	if _, err := conn.ExecContext(ctx, "BEGIN"); err != nil {
		return s.fail("BEGIN", err)
	}

	if err := fn(ctx, conn); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
		return s.fail("COMMIT", err)
	}
	return nil
}

// Close закрывает пул соединений сервиса.
func (s *Service) Close() error {
	return s.pool.Close()
}

// validateStatement отклоняет пустой statement как ошибку программирования,
// не трогая пул.
func validateStatement(query string) error {
	if strings.TrimSpace(query) == "" {
		return shared.Wrap(shared.ErrInvalidArgument, "blank statement")
	}
	return nil
}

// fail логирует сбой statement, уведомляет ErrorHook и помечает ошибку
// как ошибку запроса.
func (s *Service) fail(query string, err error) error {
	s.log.Error("statement failed", slog.String("query", query), slog.Any("err", err))
	if s.onError != nil {
		s.onError(err)
	}
	return shared.MarkKind(err, shared.KindQuery)
}
