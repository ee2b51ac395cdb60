// Package scheduler реализует запуск периодических задач на пуле воркеров.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task — тело периодической задачи. Контекст отменяется при принудительном
// завершении оркестратора; тело обязано быть безопасным при конкурентном
// запуске с самим собой.
type Task func(ctx context.Context)

type scheduledTask struct {
	name    string
	fn      Task
	running atomic.Bool
}

// Orchestrator запускает зарегистрированные задачи по их расписаниям на
// пуле воркеров фиксированного размера. Наложение запусков одной задачи
// предотвращается: если предыдущий запуск ещё не завершился, очередной тик
// пропускается. Паника в теле задачи перехватывается на границе воркера
// и не отменяет расписание.
type Orchestrator struct {
	logger *zap.Logger
	jobs   chan *scheduledTask

	tickCtx    context.Context
	tickCancel context.CancelFunc
	taskCtx    context.Context
	taskCancel context.CancelFunc

	tickers sync.WaitGroup
	workers sync.WaitGroup
}

// New создаёт оркестратор с указанным числом воркеров и запускает пул.
func New(workers int, logger *zap.Logger) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}

	tickCtx, tickCancel := context.WithCancel(context.Background())
	taskCtx, taskCancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		logger:     logger,
		jobs:       make(chan *scheduledTask),
		tickCtx:    tickCtx,
		tickCancel: tickCancel,
		taskCtx:    taskCtx,
		taskCancel: taskCancel,
	}

	o.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go o.worker()
	}

	return o
}

// Schedule регистрирует периодическую задачу: первый запуск после initialDelay,
// далее каждые period. Результат запуска вызывающему не возвращается.
func (o *Orchestrator) Schedule(name string, initialDelay, period time.Duration, fn Task) {
	t := &scheduledTask{name: name, fn: fn}

	o.tickers.Add(1)
	go func() {
		defer o.tickers.Done()

		timer := time.NewTimer(initialDelay)
		defer timer.Stop()

		select {
		case <-o.tickCtx.Done():
			return
		case <-timer.C:
		}
		o.submit(t)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-o.tickCtx.Done():
				return
			case <-ticker.C:
				o.submit(t)
			}
		}
	}()
}

// submit передаёт тик задачи в пул. Тик пропускается, если предыдущий
// запуск этой задачи ещё выполняется.
func (o *Orchestrator) submit(t *scheduledTask) {
	if !t.running.CompareAndSwap(false, true) {
		o.logger.Debug("skipping tick, previous run still in progress", zap.String("task", t.name))
		return
	}

	select {
	case o.jobs <- t:
	case <-o.tickCtx.Done():
		t.running.Store(false)
	}
}

func (o *Orchestrator) worker() {
	defer o.workers.Done()

	for t := range o.jobs {
		o.runTask(t)
	}
}

// runTask выполняет один тик задачи, перехватывая панику на границе:
// сбойный тик пропадает, расписание продолжает действовать.
func (o *Orchestrator) runTask(t *scheduledTask) {
	defer t.running.Store(false)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("task panicked", zap.String("task", t.name), zap.Any("panic", r))
		}
	}()

	t.fn(o.taskCtx)
}

// Stop прекращает выдачу новых тиков, даёт выполняющимся задачам grace
// на завершение, после чего принудительно отменяет их контекст.
func (o *Orchestrator) Stop(grace time.Duration) {
	o.tickCancel()
	o.tickers.Wait()
	close(o.jobs)

	done := make(chan struct{})
	go func() {
		o.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info("scheduler stopped")
	case <-time.After(grace):
		o.logger.Warn("grace period elapsed, cancelling in-flight tasks")
		o.taskCancel()
		<-done
	}
	o.taskCancel()
}
