package sqlite

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// TestDB представляет тестовую SQLite базу данных с удобными хелперами.
type TestDB struct {
	Pool    *Pool
	Service *Service
	Path    string // Путь к файлу БД (":memory:" для in-memory)
}

// NewTestDBInMemory создает пул и сервис поверх in-memory базы для тестов.
// База автоматически закрывается после завершения теста.
func NewTestDBInMemory(t *testing.T) *TestDB {
	t.Helper()
	return newTestDB(t, InMemory)
}

// NewTestDBFile создает пул и сервис поверх временного файла для тестов.
// Файл автоматически удаляется после завершения теста. Файловая база нужна
// тестам, применяющим миграции (golang-migrate открывает своё соединение).
func NewTestDBFile(t *testing.T) *TestDB {
	t.Helper()
	return newTestDB(t, filepath.Join(t.TempDir(), "test.db"))
}

func newTestDB(t *testing.T, target string) *TestDB {
	t.Helper()

	opts := DefaultPoolOptions()
	if target == InMemory {
		opts.WALMode = false // WAL не поддерживается для in-memory БД
	}

	pool, err := NewPool(context.Background(), target, opts)
	if err != nil {
		t.Fatalf("Failed to create test pool: %v", err)
	}

	tdb := &TestDB{
		Pool:    pool,
		Service: NewService(pool),
		Path:    target,
	}

	t.Cleanup(func() {
		_ = pool.Close()
		if target != InMemory {
			_ = os.Remove(target)
		}
	})

	return tdb
}

// ApplyTestMigrations применяет миграции к тестовой БД.
// Удобно для интеграционных тестов репозиториев.
func (tdb *TestDB) ApplyTestMigrations(t *testing.T, migrations fs.FS, dir string) {
	t.Helper()

	if tdb.Path == InMemory {
		t.Fatal("migrations require a file-backed test DB, use NewTestDBFile")
	}
	if err := ApplyMigrations(tdb.Path, migrations, dir); err != nil {
		t.Fatalf("Failed to apply test migrations: %v", err)
	}
}

// Exec выполняет statement записи и проверяет отсутствие ошибок.
func (tdb *TestDB) Exec(t *testing.T, query string, args ...any) Result {
	t.Helper()

	res, err := tdb.Service.Execute(context.Background(), query, args...)
	if err != nil {
		t.Fatalf("Failed to execute statement: %v", err)
	}
	return res
}

// CountRows возвращает количество строк в таблице.
func (tdb *TestDB) CountRows(t *testing.T, tableName string) int {
	t.Helper()

	var count int
	err := tdb.Service.Query(context.Background(), "SELECT COUNT(*) FROM "+tableName, func(rows *sql.Rows) error {
		if rows.Next() {
			return rows.Scan(&count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to count rows in table %s: %v", tableName, err)
	}
	return count
}

// MustSeed выполняет подготовительные statements и падает при ошибке.
func (tdb *TestDB) MustSeed(t *testing.T, queries ...string) {
	t.Helper()

	for _, query := range queries {
		tdb.Exec(t, query)
	}
}
