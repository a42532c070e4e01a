// Package scheduler запускает периодические фоновые задачи по cron-расписанию.
//
// Расписания используют стандартный 5-польный формат cron, а также
// сокращения "@daily" и "@every 5m". Перекрывающиеся запуски одной задачи
// пропускаются, паника внутри задачи не останавливает планировщик.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// JobFunc представляет функцию задачи планировщика.
type JobFunc func(ctx context.Context) error

// cronLogger адаптер для интеграции cron logger с slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}

// Scheduler управляет периодическими задачами.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New создает планировщик с указанным родительским контекстом.
// Отмена контекста останавливает все задачи.
func New(parentCtx context.Context, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cronLogger{logger: logger.With("component", "cron")}),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// AddJob добавляет именованную задачу по cron-расписанию.
// Если предыдущий запуск еще не завершился, очередной пропускается.
// Таймаут ограничивает время выполнения одной итерации (0 - без лимита).
func (s *Scheduler) AddJob(schedule, name string, timeout time.Duration, job JobFunc) (cron.EntryID, error) {
	chain := cron.NewChain(cron.SkipIfStillRunning(cronLogger{logger: s.logger.With("job", name)}))

	id, err := s.cron.AddJob(schedule, chain.Then(cron.FuncJob(func() {
		s.run(name, timeout, job)
	})))
	if err != nil {
		s.logger.Error("failed to add job", "schedule", schedule, "name", name, "error", err)
		return 0, err
	}

	s.logger.Info("job added", "schedule", schedule, "name", name)
	return id, nil
}

// Start запускает планировщик.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения запущенных задач,
// но не дольше дедлайна контекста.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.Info("stopping scheduler")
	s.cancel()

	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop deadline exceeded")
		return ctx.Err()
	}
}

// run выполняет одну итерацию задачи: таймаут, восстановление после паники,
// логирование результата.
func (s *Scheduler) run(name string, timeout time.Duration, job JobFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()

	ctx := s.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", "name", name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Debug("job completed", "name", name, "duration", time.Since(start))
}
