package breathing

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeTimer — отменяемый элемент очереди fakeScheduler.
type fakeTimer struct {
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeScheduler складывает коллбэки в очередь; тест вызывает их явно.
type fakeScheduler struct {
	queue  []*fakeTimer
	delays []time.Duration
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{f: f}
	s.queue = append(s.queue, t)
	s.delays = append(s.delays, d)
	return t
}

// runNext вызывает первый неотменённый коллбэк. false — очередь пуста.
func (s *fakeScheduler) runNext() bool {
	for len(s.queue) > 0 {
		t := s.queue[0]
		s.queue = s.queue[1:]
		if t.stopped {
			continue
		}
		t.f()
		return true
	}
	return false
}

// recorder собирает переходы, сообщённые наблюдателю.
type recorder struct {
	transitions []Transition
	ticks       int
}

func (r *recorder) observe(_ State, tr *Transition) {
	r.ticks++
	if tr != nil {
		r.transitions = append(r.transitions, *tr)
	}
}

// TestRunBlocking_FullCourse проверяет синхронный драйвер до done.
func TestRunBlocking_FullCourse(t *testing.T) {
	c := NewController()
	c.Start(CourseOneMinute)

	ticks := make(chan time.Time, 100)
	for range 100 {
		ticks <- time.Time{}
	}

	rec := &recorder{}
	st, err := RunBlocking(context.Background(), c, ticks, rec.observe)
	if err != nil {
		t.Fatalf("RunBlocking: неожиданная ошибка: %v", err)
	}
	if st.Phase != PhaseDone {
		t.Errorf("ожидалась фаза done, получена %q", st.Phase)
	}
	if rec.ticks != 57 {
		t.Errorf("ожидалось 57 тиков, получено %d", rec.ticks)
	}
	// Лишние тики остались в канале
	if len(ticks) != 100-57 {
		t.Errorf("драйвер прочитал лишние тики: осталось %d", len(ticks))
	}
}

// TestRunBlocking_ContextCancel проверяет отмену сессии через контекст.
func TestRunBlocking_ContextCancel(t *testing.T) {
	c := NewController()
	c.Start(CourseThreeMinutes)

	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan time.Time)
	rec := &recorder{}

	cancel()
	st, err := RunBlocking(ctx, c, ticks, rec.observe)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидалась context.Canceled, получено %v", err)
	}
	if st.Phase != PhaseCancelled {
		t.Errorf("ожидалась фаза cancelled, получена %q", st.Phase)
	}
	if len(rec.transitions) != 1 || rec.transitions[0].To != PhaseCancelled {
		t.Errorf("ожидалось уведомление об отмене, получено %+v", rec.transitions)
	}
}

// TestRunBlocking_TicksClosed проверяет закрытие источника тиков.
func TestRunBlocking_TicksClosed(t *testing.T) {
	c := NewController()
	c.Start(CourseOneMinute)

	ticks := make(chan time.Time, 3)
	for range 3 {
		ticks <- time.Time{}
	}
	close(ticks)

	st, err := RunBlocking(context.Background(), c, ticks, nil)
	if !errors.Is(err, ErrTicksClosed) {
		t.Fatalf("ожидалась ErrTicksClosed, получено %v", err)
	}
	if st.Phase != PhaseInhale || st.Remaining != 1 {
		t.Errorf("ожидался inhale с остатком 1, получено %+v", st)
	}
}

// TestRunScheduled_FullCourse проверяет неблокирующий драйвер до done.
func TestRunScheduled_FullCourse(t *testing.T) {
	c := NewController()
	c.Start(CourseOneMinute)

	sched := &fakeScheduler{}
	rec := &recorder{}
	doneCalls := 0
	var final State

	run := RunScheduled(c, sched, Quantum, rec.observe, func(st State) {
		doneCalls++
		final = st
	})

	for sched.runNext() {
	}

	if !run.Finished() {
		t.Error("драйвер должен быть завершён")
	}
	if doneCalls != 1 {
		t.Errorf("done: ожидался 1 вызов, получено %d", doneCalls)
	}
	if final.Phase != PhaseDone {
		t.Errorf("ожидалась фаза done, получена %q", final.Phase)
	}
	if rec.ticks != 57 {
		t.Errorf("ожидалось 57 тиков, получено %d", rec.ticks)
	}
	for i, d := range sched.delays {
		if d != Quantum {
			t.Fatalf("задержка %d: ожидалось %v, получено %v", i, Quantum, d)
		}
	}
}

// TestDrivers_SameTransitions проверяет совпадение переходов у обоих драйверов.
func TestDrivers_SameTransitions(t *testing.T) {
	for _, course := range []Course{CourseOneMinute, CourseTwoMinutes, CourseThreeMinutes} {
		// Блокирующий драйвер
		cb := NewController()
		cb.Start(course)
		n := course.Cycles() * CycleUnits
		ticks := make(chan time.Time, n)
		for range n {
			ticks <- time.Time{}
		}
		blocking := &recorder{}
		if _, err := RunBlocking(context.Background(), cb, ticks, blocking.observe); err != nil {
			t.Fatalf("курс %d: RunBlocking: %v", course, err)
		}

		// Неблокирующий драйвер
		cs := NewController()
		cs.Start(course)
		sched := &fakeScheduler{}
		scheduled := &recorder{}
		RunScheduled(cs, sched, Quantum, scheduled.observe, nil)
		for sched.runNext() {
		}

		if len(blocking.transitions) != len(scheduled.transitions) {
			t.Fatalf("курс %d: число переходов %d != %d",
				course, len(blocking.transitions), len(scheduled.transitions))
		}
		for i := range blocking.transitions {
			if blocking.transitions[i] != scheduled.transitions[i] {
				t.Errorf("курс %d, переход %d: %+v != %+v",
					course, i, blocking.transitions[i], scheduled.transitions[i])
			}
		}
		if cb.State() != cs.State() {
			t.Errorf("курс %d: конечные состояния различаются: %+v != %+v", course, cb.State(), cs.State())
		}
	}
}

// TestRunScheduled_Stop проверяет прерывание неблокирующей сессии.
func TestRunScheduled_Stop(t *testing.T) {
	c := NewController()
	c.Start(CourseTwoMinutes)

	sched := &fakeScheduler{}
	rec := &recorder{}
	doneCalls := 0
	run := RunScheduled(c, sched, Quantum, rec.observe, func(State) { doneCalls++ })

	// Пять тиков: вдох завершён, идёт задержка
	for range 5 {
		sched.runNext()
	}
	if c.State().Phase != PhaseHold {
		t.Fatalf("ожидалась фаза hold, получена %q", c.State().Phase)
	}

	run.Stop()
	if c.State().Phase != PhaseCancelled {
		t.Errorf("ожидалась фаза cancelled, получена %q", c.State().Phase)
	}
	last := rec.transitions[len(rec.transitions)-1]
	if last.From != PhaseHold || last.To != PhaseCancelled {
		t.Errorf("неожиданный последний переход: %+v", last)
	}

	// Запланированный тик снят, повторный Stop ничего не делает
	if sched.runNext() {
		t.Error("после Stop не должно оставаться тиков")
	}
	run.Stop()
	if doneCalls != 1 {
		t.Errorf("done: ожидался 1 вызов, получено %d", doneCalls)
	}
}

// TestRunScheduled_NotStarted проверяет запуск драйвера без активной сессии.
func TestRunScheduled_NotStarted(t *testing.T) {
	c := NewController()
	sched := &fakeScheduler{}
	var final State
	run := RunScheduled(c, sched, Quantum, nil, func(st State) { final = st })

	if !run.Finished() {
		t.Error("драйвер должен завершиться сразу")
	}
	if final.Phase != PhaseReady {
		t.Errorf("ожидалась фаза ready, получена %q", final.Phase)
	}
	if len(sched.queue) != 0 {
		t.Error("не должно быть запланированных тиков")
	}
}
