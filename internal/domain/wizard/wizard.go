// Пакет wizard — пошаговый мастер тренировки переосмысления (ABCDE).
//
// Шаги идут строго по порядку:
//
//	A → B → C → D → E → MEMO → CONFIRM → SAVED | DISCARDED
//
// Previous возвращает на шаг назад с сохранением введённых данных,
// Abort завершает мастер без сохранения. Вопрос для шага D выбирается
// из пула один раз при первом переходе C → D.
package wizard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bigkaa/innerpeace/internal/domain/model"
)

// Step — шаг мастера.
type Step string

const (
	StepAdversity   Step = "A"
	StepBelief      Step = "B"
	StepConsequence Step = "C"
	StepDisputation Step = "D"
	StepEffect      Step = "E"
	StepMemo        Step = "MEMO"
	StepConfirm     Step = "CONFIRM"
	StepSaved       Step = "SAVED"
	StepDiscarded   Step = "DISCARDED"
)

// order — последовательность нетерминальных шагов.
var order = []Step{
	StepAdversity,
	StepBelief,
	StepConsequence,
	StepDisputation,
	StepEffect,
	StepMemo,
	StepConfirm,
}

var (
	// ErrInvalidConsequence — ответ на шаге C не целое число в [1, 10].
	ErrInvalidConsequence = fmt.Errorf("оценка должна быть целым числом от %d до %d",
		model.MinConsequence, model.MaxConsequence)
	// ErrNoPrevious — шаг назад с первого шага.
	ErrNoPrevious = errors.New("с первого шага нельзя вернуться назад")
	// ErrNoAnswer — Next на шаге без сохранённого ответа.
	ErrNoAnswer = errors.New("на этом шаге ещё нет ответа")
	// ErrConfirmRequired — на шаге CONFIRM нужен Confirm, а не Submit/Next.
	ErrConfirmRequired = errors.New("на шаге подтверждения используйте Confirm")
	// ErrNotConfirmStep — Confirm вне шага CONFIRM.
	ErrNotConfirmStep = errors.New("подтверждение возможно только на шаге CONFIRM")
	// ErrFinished — мастер уже завершён.
	ErrFinished = errors.New("мастер уже завершён")
	// ErrMissingRequired — не заполнены adversity или belief.
	ErrMissingRequired = errors.New("поля adversity и belief обязательны")
	// ErrSaveFailed — хранилище не приняло запись.
	ErrSaveFailed = errors.New("не удалось сохранить запись")
)

// QuestionSource — источник вопросов для шага D.
type QuestionSource interface {
	Draw() string
}

// Saver — хранилище, принимающее готовую запись.
type Saver interface {
	Append(rec model.Record) bool
}

// Wizard — состояние одной сессии мастера. Не потокобезопасен.
type Wizard struct {
	questions QuestionSource
	saver     Saver
	requireAB bool
	now       func() time.Time
	newID     func() string

	step        Step
	answers     map[Step]string
	consequence int
	question    string
}

// Option — параметр конструктора Wizard.
type Option func(*Wizard)

// WithRequiredAdversityBelief запрещает сохранение с пустыми adversity/belief.
func WithRequiredAdversityBelief(required bool) Option {
	return func(w *Wizard) {
		w.requireAB = required
	}
}

// WithClock задаёт источник времени для поля date.
func WithClock(now func() time.Time) Option {
	return func(w *Wizard) {
		w.now = now
	}
}

// WithIDGenerator задаёт генератор ID записи (по умолчанию UUID v4).
func WithIDGenerator(fn func() string) Option {
	return func(w *Wizard) {
		w.newID = fn
	}
}

// New создаёт мастер на шаге A.
func New(questions QuestionSource, saver Saver, opts ...Option) *Wizard {
	w := &Wizard{
		questions: questions,
		saver:     saver,
		now:       time.Now,
		step:      StepAdversity,
		answers:   make(map[Step]string, len(order)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step возвращает текущий шаг.
func (w *Wizard) Step() Step {
	return w.step
}

// Finished возвращает true после SAVED или DISCARDED.
func (w *Wizard) Finished() bool {
	return w.step == StepSaved || w.step == StepDiscarded
}

// Question возвращает вопрос сессии; пустая строка до шага D.
func (w *Wizard) Question() string {
	return w.question
}

// Answer возвращает сохранённый ответ шага.
func (w *Wizard) Answer(step Step) (string, bool) {
	a, ok := w.answers[step]
	return a, ok
}

// Input возвращает собранные ответы.
func (w *Wizard) Input() model.ABCDEInput {
	return model.ABCDEInput{
		Adversity:   w.answers[StepAdversity],
		Belief:      w.answers[StepBelief],
		Consequence: w.consequence,
		Disputation: w.answers[StepDisputation],
		Effect:      w.answers[StepEffect],
		Memo:        w.answers[StepMemo],
	}
}

// Submit сохраняет ответ текущего шага и переходит к следующему.
// На шаге C допускается только целое в [1, 10]; иначе ErrInvalidConsequence
// и шаг не меняется.
func (w *Wizard) Submit(text string) error {
	if w.Finished() {
		return ErrFinished
	}
	if w.step == StepConfirm {
		return ErrConfirmRequired
	}

	if w.step == StepConsequence {
		v, err := ParseConsequence(text)
		if err != nil {
			return err
		}
		w.consequence = v
		text = strconv.Itoa(v)
	}

	w.answers[w.step] = text
	w.advance()
	return nil
}

// Next повторно переходит вперёд, используя уже сохранённый ответ.
func (w *Wizard) Next() error {
	if w.Finished() {
		return ErrFinished
	}
	if w.step == StepConfirm {
		return ErrConfirmRequired
	}
	if _, ok := w.answers[w.step]; !ok {
		return ErrNoAnswer
	}
	if w.step == StepConsequence && !model.ValidConsequence(w.consequence) {
		return ErrInvalidConsequence
	}

	w.advance()
	return nil
}

// Previous возвращает на шаг назад, сохраняя все ответы.
func (w *Wizard) Previous() error {
	if w.Finished() {
		return ErrFinished
	}
	i := w.index()
	if i == 0 {
		return ErrNoPrevious
	}
	w.step = order[i-1]
	return nil
}

// Abort завершает мастер без сохранения.
func (w *Wizard) Abort() error {
	if w.Finished() {
		return ErrFinished
	}
	w.step = StepDiscarded
	return nil
}

// Confirm завершает мастер на шаге CONFIRM.
// save=false — DISCARDED. save=true — запись ABCDE передаётся в хранилище;
// при отказе хранилища возвращается ErrSaveFailed и шаг остаётся CONFIRM.
func (w *Wizard) Confirm(save bool) (model.Record, error) {
	if w.Finished() {
		return model.Record{}, ErrFinished
	}
	if w.step != StepConfirm {
		return model.Record{}, ErrNotConfirmStep
	}

	if !save {
		w.step = StepDiscarded
		return model.Record{}, nil
	}

	in := w.Input()
	if w.requireAB && (strings.TrimSpace(in.Adversity) == "" || strings.TrimSpace(in.Belief) == "") {
		return model.Record{}, ErrMissingRequired
	}

	rec := model.NewABCDE(in, w.now())
	if w.newID != nil {
		rec.ID = w.newID()
	}
	if !w.saver.Append(rec) {
		return model.Record{}, ErrSaveFailed
	}

	w.step = StepSaved
	return rec, nil
}

// advance переходит к следующему шагу. При первом C → D выбирается вопрос.
func (w *Wizard) advance() {
	next := order[w.index()+1]
	if next == StepDisputation && w.question == "" && w.questions != nil {
		w.question = w.questions.Draw()
	}
	w.step = next
}

func (w *Wizard) index() int {
	for i, s := range order {
		if s == w.step {
			return i
		}
	}
	return -1
}

// ParseConsequence разбирает оценку интенсивности эмоции.
func ParseConsequence(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || !model.ValidConsequence(v) {
		return 0, ErrInvalidConsequence
	}
	return v, nil
}
