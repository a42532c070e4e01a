package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite" // SQLite драйвер
)

// InMemory - специальное имя цели для эфемерной in-memory базы данных.
// Каждый пул с этой целью получает собственную уникальную базу.
const InMemory = ":memory:"

// ErrPoolClosed возвращается при попытке получить соединение из закрытого пула.
var ErrPoolClosed = errors.New("sqlite: pool is closed")

// PoolOptions содержит настройки пула соединений SQLite.
type PoolOptions struct {
	// MaxIdle - максимальное количество простаивающих соединений в пуле.
	// Пул предзаполняется этим количеством при создании.
	MaxIdle int
	// PingTimeout - таймаут проверки соединения при открытии
	PingTimeout time.Duration
	// WALMode - использовать ли WAL режим для лучшей производительности
	WALMode bool
	// ForeignKeys - включить ли проверку внешних ключей (каскадные удаления)
	ForeignKeys bool
	// BusyTimeout - таймаут ожидания при SQLITE_BUSY
	BusyTimeout time.Duration
}

// DefaultPoolOptions возвращает настройки по умолчанию, оптимизированные для embedded использования.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxIdle:     5,
		PingTimeout: 5 * time.Second,
		WALMode:     true,            // WAL режим для лучшей производительности
		ForeignKeys: true,            // Внешние ключи обязательны для каскадных удалений
		BusyTimeout: 5 * time.Second, // 5 секунд ожидания при блокировке
	}
}

// Conn представляет одно физическое соединение с базой данных.
// Каждое соединение обёрнуто в собственный *sql.DB, ограниченный одним
// открытым соединением, поэтому транзакционное состояние (BEGIN/COMMIT)
// сохраняется между последовательными вызовами на одном Conn.
type Conn struct {
	db *sql.DB
}

// ExecContext выполняет statement записи на этом соединении.
func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// QueryContext выполняет statement чтения на этом соединении.
func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRowContext выполняет statement чтения одной строки на этом соединении.
func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.db.QueryRowContext(ctx, query, args...)
}

// close закрывает физическое соединение.
func (c *Conn) close() error {
	return c.db.Close()
}

// memSeq нумерует in-memory базы, чтобы пулы в одном процессе не делили состояние.
var memSeq atomic.Int64

// Pool управляет ограниченным набором переиспользуемых соединений к одной базе.
//
// Acquire никогда не блокируется: если простаивающих соединений нет,
// открывается новое (переполнение сверх MaxIdle допускается - память
// обменивается на доступность под пиковой нагрузкой). Release возвращает
// соединение в idle-набор либо закрывает его, если набор заполнен.
//
// Проверка здоровья и максимальное время жизни простаивающих соединений
// не реализованы.
type Pool struct {
	dsn  string
	opts PoolOptions

	mu     sync.Mutex
	idle   []*Conn
	closed bool

	open atomic.Int64 // всего открытых соединений (idle + выданные)
}

// NewPool создает пул соединений к файлу базы данных или in-memory инстансу
// и предзаполняет idle-набор.
func NewPool(ctx context.Context, target string, opts PoolOptions) (*Pool, error) {
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = DefaultPoolOptions().MaxIdle
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = DefaultPoolOptions().PingTimeout
	}

	dsn, err := buildDSN(target, opts)
	if err != nil {
		return nil, err
	}

	p := &Pool{dsn: dsn, opts: opts}

	// Предзаполняем idle-набор. Для in-memory базы это дополнительно
	// гарантирует, что база живёт, пока открыт пул.
	for i := 0; i < opts.MaxIdle; i++ {
		conn, err := p.openConn(ctx)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		p.idle = append(p.idle, conn)
	}

	return p, nil
}

// buildDSN строит DSN строку для SQLite.
// Для in-memory цели генерируется уникальное имя с разделяемым кэшем,
// чтобы все соединения пула видели одну и ту же базу.
func buildDSN(target string, opts PoolOptions) (string, error) {
	if target == InMemory {
		return fmt.Sprintf("file:gymlogmem%d?mode=memory&cache=shared", memSeq.Add(1)), nil
	}

	// Создаем директорию для БД если её нет
	if dir := filepath.Dir(target); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if opts.BusyTimeout > 0 {
		return fmt.Sprintf("%s?_busy_timeout=%d", target, opts.BusyTimeout.Milliseconds()), nil
	}
	return target, nil
}

// openConn открывает новое физическое соединение и применяет PRAGMA настройки.
// Проверка внешних ключей включается до первого использования соединения.
func (p *Pool) openConn(ctx context.Context) (*Conn, error) {
	db, err := sql.Open("sqlite", p.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// Один Conn - одно физическое соединение
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	pingCtx, cancel := context.WithTimeout(ctx, p.opts.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := applyPragmas(ctx, db, p.opts); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply PRAGMA settings: %w", err)
	}

	p.open.Add(1)
	return &Conn{db: db}, nil
}

// applyPragmas применяет PRAGMA настройки к открытому соединению.
func applyPragmas(ctx context.Context, db *sql.DB, opts PoolOptions) error {
	pragmas := make([]string, 0, 4)

	if opts.ForeignKeys {
		pragmas = append(pragmas, "PRAGMA foreign_keys = ON")
	}
	if opts.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	pragmas = append(pragmas, "PRAGMA synchronous = NORMAL")
	if opts.BusyTimeout > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds()))
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

// Acquire возвращает простаивающее соединение, если оно есть,
// иначе открывает новое. Никогда не блокируется и не ставит вызов в очередь.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	return p.openConn(ctx)
}

// Release возвращает соединение в idle-набор, если он не заполнен,
// иначе немедленно закрывает соединение.
func (p *Pool) Release(conn *Conn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	if !p.closed && len(p.idle) < p.opts.MaxIdle {
		p.idle = append(p.idle, conn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.open.Add(-1)
	_ = conn.close()
}

// PoolStats содержит моментальный снимок состояния пула.
type PoolStats struct {
	// Idle - количество простаивающих соединений в пуле
	Idle int
	// Open - всего открытых соединений (idle + выданные)
	Open int64
}

// Stats возвращает текущее состояние пула.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()
	return PoolStats{Idle: idle, Open: p.open.Load()}
}

// Close закрывает все простаивающие соединения и помечает пул закрытым.
// Выданные соединения закрываются при их Release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var errs []error
	for _, conn := range idle {
		p.open.Add(-1)
		if err := conn.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
