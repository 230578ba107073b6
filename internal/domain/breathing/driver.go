// driver.go — драйверы времени для Controller.
//
// RunBlocking — синхронный цикл по каналу тиков (консоль).
// RunScheduled — неблокирующая цепочка отложенных коллбэков (GUI/event loop).
// Оба драйвера вызывают один и тот же Controller.Tick, поэтому при
// одинаковой последовательности тиков выдают одинаковые фазы и циклы.
package breathing

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Quantum — длительность одного тика в реальном времени.
const Quantum = time.Second

// ErrTicksClosed — источник тиков закрыт до завершения сессии.
var ErrTicksClosed = errors.New("источник тиков закрыт до завершения сессии")

// Observer получает состояние после каждого тика.
// tr != nil, если на этом тике сменилась фаза.
type Observer func(st State, tr *Transition)

// RunBlocking ведёт начатую сессию по тикам из канала до done/cancelled.
// Отмена ctx прерывает сессию (Cancel) и возвращает ctx.Err().
func RunBlocking(ctx context.Context, c *Controller, ticks <-chan time.Time, observe Observer) (State, error) {
	for c.State().Active() {
		select {
		case <-ctx.Done():
			cancelAndNotify(c, observe)
			return c.State(), ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return c.State(), ErrTicksClosed
			}
			step(c, observe)
		}
	}
	return c.State(), nil
}

// Timer — отложенный вызов, который можно отменить.
type Timer interface {
	Stop() bool
}

// Scheduler планирует вызов f через d. *time.Timer удовлетворяет Timer.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// realScheduler — планировщик на time.AfterFunc.
type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealScheduler — планировщик реального времени.
var RealScheduler Scheduler = realScheduler{}

// ScheduledRun — сессия, управляемая цепочкой коллбэков.
// Каждый коллбэк выполняет один тик и планирует следующий.
type ScheduledRun struct {
	c       *Controller
	sched   Scheduler
	quantum time.Duration
	observe Observer
	done    func(State)

	mu       sync.Mutex // сериализует коллбэки и Stop
	timer    Timer
	finished bool
}

// RunScheduled запускает неблокирующий драйвер для начатой сессии.
// done вызывается ровно один раз — по завершении или после Stop.
// Коллбэки observe и done не должны вызывать методы ScheduledRun.
func RunScheduled(c *Controller, sched Scheduler, quantum time.Duration, observe Observer, done func(State)) *ScheduledRun {
	r := &ScheduledRun{
		c:       c,
		sched:   sched,
		quantum: quantum,
		observe: observe,
		done:    done,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !c.State().Active() {
		r.finish()
		return r
	}
	r.timer = sched.AfterFunc(quantum, r.fire)
	return r
}

// Stop прерывает сессию: снимает запланированный тик и вызывает Cancel.
func (r *ScheduledRun) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	cancelAndNotify(r.c, r.observe)
	r.finish()
}

// Finished возвращает true после завершения сессии или Stop.
func (r *ScheduledRun) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// fire — один тик и планирование следующего.
func (r *ScheduledRun) fire() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}

	step(r.c, r.observe)

	if r.c.State().Active() {
		r.timer = r.sched.AfterFunc(r.quantum, r.fire)
		return
	}
	r.finish()
}

func (r *ScheduledRun) finish() {
	r.finished = true
	r.timer = nil
	if r.done != nil {
		r.done(r.c.State())
	}
}

// step выполняет один тик и уведомляет наблюдателя.
func step(c *Controller, observe Observer) {
	tr, changed := c.Tick()
	if observe == nil {
		return
	}
	if changed {
		observe(c.State(), &tr)
		return
	}
	observe(c.State(), nil)
}

// cancelAndNotify прерывает активную сессию и сообщает о переходе.
func cancelAndNotify(c *Controller, observe Observer) {
	tr, err := c.Cancel()
	if err != nil {
		return
	}
	if observe != nil {
		observe(c.State(), &tr)
	}
}
