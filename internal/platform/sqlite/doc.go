// Package sqlite предоставляет инфраструктурные компоненты для работы с SQLite.
//
// Основные возможности:
// - Пул соединений с явным Acquire/Release и переполнением без блокировки
// - Выполнение параметризованных statements чтения и записи
// - Транзакции на одном соединении с гарантированным откатом при ошибке
// - Система миграций на встроенной файловой системе
// - Тестовые хелперы для удобного тестирования
//
// # Быстрый старт
//
// Создание пула и сервиса:
//
//	ctx := context.Background()
//	pool, err := sqlite.NewPool(ctx, "app.db", sqlite.DefaultPoolOptions())
//	if err != nil {
//		return err
//	}
//	svc := sqlite.NewService(pool)
//	defer svc.Close()
//
// # Выполнение statements
//
// Чтение:
//
//	var names []string
//	err = svc.Query(ctx, "SELECT name FROM exercises WHERE session_id = ?", func(rows *sql.Rows) error {
//		for rows.Next() {
//			var name string
//			if err := rows.Scan(&name); err != nil {
//				return err
//			}
//			names = append(names, name)
//		}
//		return nil
//	}, sessionID)
//
// Запись:
//
//	res, err := svc.Execute(ctx, "INSERT INTO exercises (session_id, name) VALUES (?, ?)", sessionID, "bench")
//	// res.LastInsertID - идентификатор новой строки
//
// # Транзакции
//
// Все statements тела выполняются на одном соединении; при ошибке
// транзакция откатывается и исходная ошибка возвращается вызывающему:
//
//	err = svc.WithinTx(ctx, func(ctx context.Context, q sqlite.Querier) error {
//		if _, err := q.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
//			return err
//		}
//		return nil
//	})
//
// # Миграции
//
// Применение встроенных миграций:
//
//	//go:embed migrations/*.sql
//	var migrations embed.FS
//
//	err = sqlite.ApplyMigrations("app.db", migrations, "migrations")
//
// # Тестирование
//
// In-memory база для тестов:
//
//	func TestSomething(t *testing.T) {
//		tdb := sqlite.NewTestDBInMemory(t)
//		// tdb.Pool, tdb.Service доступны для использования
//		// Автоматическая очистка после теста
//	}
//
// Файловая база для интеграционных тестов с миграциями:
//
//	func TestWithMigrations(t *testing.T) {
//		tdb := sqlite.NewTestDBFile(t)
//		tdb.ApplyTestMigrations(t, migrations, "migrations")
//	}
package sqlite
