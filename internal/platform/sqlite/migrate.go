package sqlite

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// BuildMigrateURL строит корректный URL для golang-migrate с учётом особенностей ОС.
// На Windows для путей вида "C:\..." создаёт "sqlite:///C:/...",
// на Unix для "/..." создаёт "sqlite:///...".
func BuildMigrateURL(dbPath string) (string, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	// Нормализуем слеши для URL
	urlPath := filepath.ToSlash(absPath)

	// На Windows добавляем дополнительный слеш перед диском
	if runtime.GOOS == "windows" && len(urlPath) >= 2 && urlPath[1] == ':' {
		urlPath = "/" + urlPath
	}

	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}

	return "sqlite://" + urlPath, nil
}

// newMigrate создает экземпляр migrate с iofs-источником.
// Миграции читаются из встроенной файловой системы, поэтому применение
// работает из любой рабочей директории (в том числе из тестов пакетов).
func newMigrate(dbPath string, migrations fs.FS, dir string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs source: %w", err)
	}

	databaseURL, err := BuildMigrateURL(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to build database URL: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// ApplyMigrations применяет все доступные миграции к SQLite базе данных.
// Функция безопасна для повторного вызова - если миграции уже применены,
// ошибки не будет.
//
// golang-migrate открывает собственное соединение, поэтому функция применима
// только к файловым базам (in-memory база другого соединения не видна).
func ApplyMigrations(dbPath string, migrations fs.FS, dir string) error {
	m, err := newMigrate(dbPath, migrations, dir)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// MigrationVersion возвращает текущую версию примененных миграций.
// Полезно для логирования и отладки.
func MigrationVersion(dbPath string, migrations fs.FS, dir string) (uint, bool, error) {
	m, err := newMigrate(dbPath, migrations, dir)
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_, _ = m.Close()
	}()

	version, dirty, err := m.Version()
	if err != nil {
		// Если миграции еще не применялись, это не ошибка
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// ResetMigrations откатывает все миграции (опасная операция!).
// Используется только в тестах.
func ResetMigrations(dbPath string, migrations fs.FS, dir string) error {
	m, err := newMigrate(dbPath, migrations, dir)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return nil
}
