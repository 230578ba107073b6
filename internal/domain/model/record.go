// Пакет model — доменные модели Inner-Peace.
// Record — единая запись журнала (вариант ABCDE или SOS), используется
// как in-memory представление и как элемент JSON-массива в файле истории.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayout — формат поля date: YYYY-MM-DD HH:MM:SS (локальное время).
const DateLayout = "2006-01-02 15:04:05"

// Границы шкалы consequence (интенсивность эмоции).
const (
	MinConsequence = 1
	MaxConsequence = 10
)

// RecordType — тип записи журнала.
type RecordType string

const (
	// TypeABCDE — запись тренировки переосмысления (модель ABCDE)
	TypeABCDE RecordType = "ABCDE"
	// TypeSOS — запись дыхательной сессии 4-7-8 с заземлением
	TypeSOS RecordType = "SOS"
)

// Ключи карты grounding (пять чувств).
const (
	SenseSight = "sight"
	SenseTouch = "touch"
	SenseSound = "sound"
	SenseSmell = "smell"
	SenseTaste = "taste"
)

// Senses — ключи grounding в порядке опроса.
var Senses = []string{SenseSight, SenseTouch, SenseSound, SenseSmell, SenseTaste}

// ErrInvalidRecord — запись не проходит проверку инвариантов.
var ErrInvalidRecord = errors.New("некорректная запись")

// Grounding — ответы упражнения заземления 5-4-3-2-1.
// Пустая карта означает, что сессия завершилась до заземления.
type Grounding map[string]string

// NewGrounding собирает карту заземления из ответов по пяти чувствам.
func NewGrounding(sight, touch, sound, smell, taste string) Grounding {
	return Grounding{
		SenseSight: sight,
		SenseTouch: touch,
		SenseSound: sound,
		SenseSmell: smell,
		SenseTaste: taste,
	}
}

// Record — запись журнала. Поля варианта, не относящиеся к Type,
// игнорируются при сериализации.
type Record struct {
	// ID — уникальный идентификатор (UUID v4). Пустой у legacy-записей до миграции.
	ID string
	// Type — дискриминатор варианта
	Type RecordType
	// Date — время создания в формате DateLayout
	Date string
	// Memo — необязательная заметка
	Memo string

	// Вариант ABCDE
	Adversity   string
	Belief      string
	Consequence int
	Disputation string
	Effect      string

	// Вариант SOS
	Course    string
	Grounding Grounding
}

// ABCDEInput — ответы мастера ABCDE.
type ABCDEInput struct {
	Adversity   string
	Belief      string
	Consequence int
	Disputation string
	Effect      string
	Memo        string
}

// NewABCDE создаёт запись ABCDE с новым ID и датой из now.
func NewABCDE(in ABCDEInput, now time.Time) Record {
	return Record{
		ID:          uuid.NewString(),
		Type:        TypeABCDE,
		Date:        FormatDate(now),
		Memo:        in.Memo,
		Adversity:   in.Adversity,
		Belief:      in.Belief,
		Consequence: in.Consequence,
		Disputation: in.Disputation,
		Effect:      in.Effect,
	}
}

// NewSOS создаёт запись SOS. nil grounding заменяется пустой картой.
func NewSOS(course, memo string, grounding Grounding, now time.Time) Record {
	g := make(Grounding, len(grounding))
	for k, v := range grounding {
		g[k] = v
	}
	return Record{
		ID:        uuid.NewString(),
		Type:      TypeSOS,
		Date:      FormatDate(now),
		Memo:      memo,
		Course:    course,
		Grounding: g,
	}
}

// FormatDate форматирует время в формат поля date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidConsequence проверяет попадание в шкалу [1, 10].
func ValidConsequence(v int) bool {
	return v >= MinConsequence && v <= MaxConsequence
}

// Validate проверяет инварианты записи перед сохранением.
func (r *Record) Validate() error {
	switch r.Type {
	case TypeABCDE:
		if !ValidConsequence(r.Consequence) {
			return fmt.Errorf("%w: consequence %d вне диапазона %d-%d",
				ErrInvalidRecord, r.Consequence, MinConsequence, MaxConsequence)
		}
	case TypeSOS:
	default:
		return fmt.Errorf("%w: неизвестный тип %q", ErrInvalidRecord, r.Type)
	}
	return nil
}

// Summary возвращает однострочное описание записи для списка истории.
func (r *Record) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] ", r.Date, r.Type)

	switch r.Type {
	case TypeABCDE:
		fmt.Fprintf(&b, "사건: %s | 감정점수: %d | 새로운 생각: %s", r.Adversity, r.Consequence, r.Effect)
	case TypeSOS:
		b.WriteString(r.Course)
	}
	if r.Memo != "" {
		fmt.Fprintf(&b, " | 메모: %s", r.Memo)
	}
	if r.Type == TypeSOS && len(r.Grounding) > 0 {
		g := r.Grounding
		fmt.Fprintf(&b, " | 그라운딩: 본 것(%s), 느낀 것(%s), 들은 것(%s), 맡은 것(%s), 맛본 것(%s)",
			g[SenseSight], g[SenseTouch], g[SenseSound], g[SenseSmell], g[SenseTaste])
	}
	return b.String()
}

// --- JSON ---

// abcdeJSON — формат записи ABCDE на диске.
type abcdeJSON struct {
	ID          string     `json:"id"`
	Type        RecordType `json:"type"`
	Date        string     `json:"date"`
	Adversity   string     `json:"adversity"`
	Belief      string     `json:"belief"`
	Consequence int        `json:"consequence"`
	Disputation string     `json:"disputation"`
	Effect      string     `json:"effect"`
	Memo        string     `json:"memo"`
}

// sosJSON — формат записи SOS на диске.
type sosJSON struct {
	ID        string     `json:"id"`
	Type      RecordType `json:"type"`
	Date      string     `json:"date"`
	Course    string     `json:"course"`
	Memo      string     `json:"memo"`
	Grounding Grounding  `json:"grounding"`
}

// recordJSON — объединение полей обоих вариантов для чтения.
// consequence читается как RawMessage: legacy-записи веб-версии
// хранят число строкой ("7").
type recordJSON struct {
	ID          string          `json:"id"`
	Type        RecordType      `json:"type"`
	Date        string          `json:"date"`
	Memo        *string         `json:"memo"`
	Adversity   string          `json:"adversity"`
	Belief      string          `json:"belief"`
	Consequence json.RawMessage `json:"consequence"`
	Disputation string          `json:"disputation"`
	Effect      string          `json:"effect"`
	Course      string          `json:"course"`
	Grounding   Grounding       `json:"grounding"`
}

// MarshalJSON сериализует только поля своего варианта.
// HTML-экранирование определяет вызывающий Encoder.
func (r Record) MarshalJSON() ([]byte, error) {
	switch r.Type {
	case TypeABCDE:
		return json.Marshal(abcdeJSON{
			ID:          r.ID,
			Type:        r.Type,
			Date:        r.Date,
			Adversity:   r.Adversity,
			Belief:      r.Belief,
			Consequence: r.Consequence,
			Disputation: r.Disputation,
			Effect:      r.Effect,
			Memo:        r.Memo,
		})
	case TypeSOS:
		g := r.Grounding
		if g == nil {
			g = Grounding{}
		}
		return json.Marshal(sosJSON{
			ID:        r.ID,
			Type:      r.Type,
			Date:      r.Date,
			Course:    r.Course,
			Memo:      r.Memo,
			Grounding: g,
		})
	default:
		return nil, fmt.Errorf("%w: неизвестный тип %q", ErrInvalidRecord, r.Type)
	}
}

// UnmarshalJSON читает запись любого известного варианта.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rec := Record{
		ID:   raw.ID,
		Type: raw.Type,
		Date: raw.Date,
	}
	if raw.Memo != nil {
		rec.Memo = *raw.Memo
	}

	switch raw.Type {
	case TypeABCDE:
		c, err := parseConsequence(raw.Consequence)
		if err != nil {
			return err
		}
		if !ValidConsequence(c) {
			return fmt.Errorf("%w: consequence %d вне диапазона %d-%d",
				ErrInvalidRecord, c, MinConsequence, MaxConsequence)
		}
		rec.Adversity = raw.Adversity
		rec.Belief = raw.Belief
		rec.Consequence = c
		rec.Disputation = raw.Disputation
		rec.Effect = raw.Effect
	case TypeSOS:
		rec.Course = raw.Course
		rec.Grounding = raw.Grounding
		if rec.Grounding == nil {
			rec.Grounding = Grounding{}
		}
	default:
		return fmt.Errorf("%w: неизвестный тип %q", ErrInvalidRecord, raw.Type)
	}

	*r = rec
	return nil
}

// parseConsequence принимает число или числовую строку.
// Отсутствие значения даёт 0 и отсекается проверкой диапазона.
func parseConsequence(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == `""` {
		return 0, nil
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, fmt.Errorf("consequence: %w", err)
		}
		s = strings.TrimSpace(str)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("consequence: некорректное целое число %q", s)
	}
	return n, nil
}
