// Пакет breathing — конечный автомат дыхательной техники 4-7-8 (SOS-режим).
//
// Жизненный цикл сессии:
//   - ready → inhale(cycle=1) по Start
//   - inhale(4) → hold(7) → exhale(8) → inhale(cycle+1) ... → done
//   - из любой активной фазы Cancel → cancelled
//
// done и cancelled — конечные состояния сессии; новая сессия начинается
// повторным Start. Автомат однопоточный и не выполняет I/O: время
// подаётся снаружи тиками (см. driver.go).
package breathing

import (
	"fmt"
)

// Phase — фаза дыхательного цикла.
type Phase string

const (
	// PhaseReady — сессия ещё не начата
	PhaseReady Phase = "ready"
	// PhaseInhale — вдох
	PhaseInhale Phase = "inhale"
	// PhaseHold — задержка дыхания
	PhaseHold Phase = "hold"
	// PhaseExhale — выдох
	PhaseExhale Phase = "exhale"
	// PhaseDone — все циклы завершены
	PhaseDone Phase = "done"
	// PhaseCancelled — сессия прервана пользователем
	PhaseCancelled Phase = "cancelled"
)

// Длительности фаз в квантах (1 квант = 1 секунда).
const (
	InhaleUnits = 4
	HoldUnits   = 7
	ExhaleUnits = 8

	// CycleUnits — длительность одного полного цикла.
	CycleUnits = InhaleUnits + HoldUnits + ExhaleUnits
)

// Коды ошибок автомата.
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeInvalidCourse     = "INVALID_COURSE"
)

// phaseDurations — длительность каждой активной фазы.
var phaseDurations = map[Phase]int{
	PhaseInhale: InhaleUnits,
	PhaseHold:   HoldUnits,
	PhaseExhale: ExhaleUnits,
}

// nextPhase — переход по истечении фазы внутри цикла.
// exhale обрабатывается отдельно: следующий цикл или done.
var nextPhase = map[Phase]Phase{
	PhaseInhale: PhaseHold,
	PhaseHold:   PhaseExhale,
}

// coachingMessages — подсказки, чередующиеся по циклам.
var coachingMessages = []string{
	"지금은 그냥 리듬에 익숙해지는 단계입니다.",
	"이번에는 내쉴 때 어깨와 턱의 힘이 빠지는 느낌에 집중해 보세요.",
	"이번에는 마음속으로 '괜찮아' 하고 되뇌어 보세요.",
}

// Course — длительность сессии в минутах (1, 2 или 3).
type Course int

const (
	CourseOneMinute    Course = 1
	CourseTwoMinutes   Course = 2
	CourseThreeMinutes Course = 3
)

// Valid проверяет допустимость курса.
func (c Course) Valid() bool {
	return c >= CourseOneMinute && c <= CourseThreeMinutes
}

// Cycles возвращает количество циклов курса (3 цикла на минуту).
func (c Course) Cycles() int {
	return int(c) * 3
}

// Label возвращает подпись курса для записи SOS ("약 2분").
func (c Course) Label() string {
	return fmt.Sprintf("약 %d분", int(c))
}

// ParseCourse преобразует число минут в Course.
func ParseCourse(minutes int) (Course, error) {
	c := Course(minutes)
	if !c.Valid() {
		return 0, &TransitionError{
			Code:    CodeInvalidCourse,
			Message: fmt.Sprintf("недопустимый курс: %d, допустимые: 1, 2, 3", minutes),
		}
	}
	return c, nil
}

// CoachingMessage возвращает подсказку для цикла (нумерация с 1).
func CoachingMessage(cycle int) string {
	if cycle < 1 {
		cycle = 1
	}
	return coachingMessages[(cycle-1)%len(coachingMessages)]
}

// State — снимок состояния автомата после очередного тика.
type State struct {
	Phase Phase `json:"phase"`
	// Remaining — оставшиеся кванты текущей фазы
	Remaining int `json:"remaining"`
	// Cycle — номер текущего цикла (с 1); 0 до старта
	Cycle int `json:"cycle"`
	// TotalCycles — общее число циклов курса
	TotalCycles int `json:"total_cycles"`
	// Course — выбранный курс
	Course Course `json:"course"`
	// Elapsed — кванты, прошедшие с начала сессии
	Elapsed int `json:"elapsed"`
}

// Active возвращает true для фаз inhale, hold и exhale.
func (s State) Active() bool {
	return isActive(s.Phase)
}

// Terminal возвращает true для done и cancelled.
func (s State) Terminal() bool {
	return s.Phase == PhaseDone || s.Phase == PhaseCancelled
}

// Transition — событие смены фазы.
type Transition struct {
	From  Phase `json:"from"`
	To    Phase `json:"to"`
	Cycle int   `json:"cycle"`
}

// Controller — автомат дыхательной сессии. Не потокобезопасен:
// вызывающая сторона управляет им из одной горутины.
type Controller struct {
	phase     Phase
	remaining int
	cycle     int
	total     int
	course    Course
	elapsed   int
}

// NewController создаёт автомат в состоянии ready.
func NewController() *Controller {
	return &Controller{phase: PhaseReady}
}

// State возвращает текущее состояние.
func (c *Controller) State() State {
	return State{
		Phase:       c.phase,
		Remaining:   c.remaining,
		Cycle:       c.cycle,
		TotalCycles: c.total,
		Course:      c.course,
		Elapsed:     c.elapsed,
	}
}

// Start начинает новую сессию с первого вдоха.
//
// Ошибки:
//   - INVALID_COURSE — курс вне 1..3
//   - INVALID_TRANSITION — сессия уже идёт
func (c *Controller) Start(course Course) (Transition, error) {
	if !course.Valid() {
		return Transition{}, &TransitionError{
			Code:    CodeInvalidCourse,
			Message: fmt.Sprintf("недопустимый курс: %d, допустимые: 1, 2, 3", int(course)),
		}
	}
	if isActive(c.phase) {
		return Transition{}, &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("сессия уже идёт (фаза %s)", c.phase),
		}
	}

	from := c.phase
	c.course = course
	c.total = course.Cycles()
	c.cycle = 1
	c.elapsed = 0
	c.enter(PhaseInhale)

	return Transition{From: from, To: PhaseInhale, Cycle: 1}, nil
}

// Tick уменьшает остаток текущей фазы ровно на один квант.
// Переход выполняется, когда остаток достигает нуля.
// Вне активных фаз тик игнорируется (changed == false).
func (c *Controller) Tick() (tr Transition, changed bool) {
	if !isActive(c.phase) {
		return Transition{}, false
	}

	c.remaining--
	c.elapsed++
	if c.remaining > 0 {
		return Transition{}, false
	}

	from := c.phase
	switch {
	case from != PhaseExhale:
		c.enter(nextPhase[from])
	case c.cycle >= c.total:
		c.phase = PhaseDone
		c.remaining = 0
	default:
		c.cycle++
		c.enter(PhaseInhale)
	}

	return Transition{From: from, To: c.phase, Cycle: c.cycle}, true
}

// Advance обрабатывает n квантов как n последовательных тиков,
// чтобы ни одна граница фазы не была пропущена.
// Возвращает все произошедшие переходы по порядку.
func (c *Controller) Advance(n int) []Transition {
	var transitions []Transition
	for i := 0; i < n && isActive(c.phase); i++ {
		if tr, ok := c.Tick(); ok {
			transitions = append(transitions, tr)
		}
	}
	return transitions
}

// Cancel немедленно прерывает активную сессию, остаток фазы отбрасывается.
func (c *Controller) Cancel() (Transition, error) {
	if !isActive(c.phase) {
		return Transition{}, &TransitionError{
			Code:    CodeInvalidTransition,
			Message: fmt.Sprintf("отмена недопустима в фазе %s", c.phase),
		}
	}

	from := c.phase
	c.phase = PhaseCancelled
	c.remaining = 0

	return Transition{From: from, To: PhaseCancelled, Cycle: c.cycle}, nil
}

// enter переводит автомат в активную фазу с полной длительностью.
func (c *Controller) enter(p Phase) {
	c.phase = p
	c.remaining = phaseDurations[p]
}

// TransitionError — ошибка перехода дыхательного автомата.
type TransitionError struct {
	Code    string // Машиночитаемый код (INVALID_TRANSITION, INVALID_COURSE)
	Message string // Человекочитаемое описание
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// isActive проверяет, идёт ли отсчёт фазы.
func isActive(p Phase) bool {
	switch p {
	case PhaseInhale, PhaseHold, PhaseExhale:
		return true
	default:
		return false
	}
}
