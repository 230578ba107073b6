package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 14, 9, 5, 7, 0, time.Local)

// TestNewABCDE проверяет конструктор записи ABCDE.
func TestNewABCDE(t *testing.T) {
	rec := NewABCDE(ABCDEInput{
		Adversity:   "시험에 떨어졌다",
		Belief:      "나는 실패자다",
		Consequence: 8,
		Disputation: "한 번의 결과일 뿐이다",
		Effect:      "다시 준비하면 된다",
		Memo:        "메모",
	}, testNow)

	if rec.ID == "" {
		t.Error("ID не должен быть пустым")
	}
	if rec.Type != TypeABCDE {
		t.Errorf("Type: ожидалось %q, получено %q", TypeABCDE, rec.Type)
	}
	if rec.Date != "2025-03-14 09:05:07" {
		t.Errorf("Date: ожидалось %q, получено %q", "2025-03-14 09:05:07", rec.Date)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("Validate: неожиданная ошибка: %v", err)
	}

	other := NewABCDE(ABCDEInput{Consequence: 1}, testNow)
	if other.ID == rec.ID {
		t.Error("ID двух записей совпадают")
	}
}

// TestNewSOS_GroundingCopy проверяет, что карта заземления копируется.
func TestNewSOS_GroundingCopy(t *testing.T) {
	g := NewGrounding("창문", "의자", "바람", "커피", "물")
	rec := NewSOS("약 1분", "", g, testNow)

	g[SenseSight] = "изменено"
	if rec.Grounding[SenseSight] != "창문" {
		t.Errorf("grounding записи изменился вместе с исходной картой: %q", rec.Grounding[SenseSight])
	}

	empty := NewSOS("약 2분", "", nil, testNow)
	if empty.Grounding == nil {
		t.Error("nil grounding должен заменяться пустой картой")
	}
}

// TestValidate проверяет инварианты записи.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"ABCDE нижняя граница", Record{Type: TypeABCDE, Consequence: 1}, false},
		{"ABCDE верхняя граница", Record{Type: TypeABCDE, Consequence: 10}, false},
		{"ABCDE ноль", Record{Type: TypeABCDE, Consequence: 0}, true},
		{"ABCDE 11", Record{Type: TypeABCDE, Consequence: 11}, true},
		{"SOS без заземления", Record{Type: TypeSOS}, false},
		{"неизвестный тип", Record{Type: "DIARY"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRecord) {
					t.Errorf("ожидалась ErrInvalidRecord, получено %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("неожиданная ошибка: %v", err)
			}
		})
	}
}

// TestMarshalJSON_ABCDE проверяет набор и порядок полей ABCDE.
func TestMarshalJSON_ABCDE(t *testing.T) {
	rec := Record{
		ID:          "id-1",
		Type:        TypeABCDE,
		Date:        "2025-03-14 09:05:07",
		Adversity:   "a",
		Belief:      "b",
		Consequence: 5,
		Disputation: "d",
		Effect:      "e",
		Course:      "не должно попасть в JSON",
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"id":"id-1","type":"ABCDE","date":"2025-03-14 09:05:07","adversity":"a","belief":"b","consequence":5,"disputation":"d","effect":"e","memo":""}`
	if string(data) != want {
		t.Errorf("ожидалось\n%s\nполучено\n%s", want, data)
	}
}

// TestMarshalJSON_SOS проверяет сериализацию SOS и пустого grounding.
func TestMarshalJSON_SOS(t *testing.T) {
	rec := Record{ID: "id-2", Type: TypeSOS, Date: "2025-03-14 09:05:07", Course: "약 1분", Consequence: 3}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"id":"id-2","type":"SOS","date":"2025-03-14 09:05:07","course":"약 1분","memo":"","grounding":{}}`
	if string(data) != want {
		t.Errorf("ожидалось\n%s\nполучено\n%s", want, data)
	}
}

// TestMarshalJSON_EscapeHTMLFollowsEncoder проверяет, что экранирование
// задаёт вызывающий: Encoder без экранирования пишет текст как есть.
func TestMarshalJSON_EscapeHTMLFollowsEncoder(t *testing.T) {
	rec := Record{ID: "x", Type: TypeSOS, Memo: "<괜찮아> & 숨쉬기"}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(buf.String(), `"memo":"<괜찮아> & 숨쉬기"`) {
		t.Errorf("memo экранирован: %s", buf.String())
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"memo":"\u003c괜찮아\u003e \u0026 숨쉬기"`) {
		t.Errorf("json.Marshal должен экранировать HTML: %s", data)
	}
}

// TestMarshalJSON_UnknownType проверяет отказ для неизвестного типа.
func TestMarshalJSON_UnknownType(t *testing.T) {
	if _, err := json.Marshal(Record{Type: "DIARY"}); err == nil {
		t.Error("ожидалась ошибка для неизвестного типа")
	}
}

// TestUnmarshalJSON_RoundTrip проверяет чтение сохранённой записи.
func TestUnmarshalJSON_RoundTrip(t *testing.T) {
	orig := NewSOS("약 3분", "좋아졌다", NewGrounding("1", "2", "3", "4", "5"), testNow)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Record
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.ID != orig.ID || got.Course != orig.Course || got.Memo != orig.Memo {
		t.Errorf("поля различаются: %+v != %+v", got, orig)
	}
	for _, sense := range Senses {
		if got.Grounding[sense] != orig.Grounding[sense] {
			t.Errorf("grounding[%s]: ожидалось %q, получено %q", sense, orig.Grounding[sense], got.Grounding[sense])
		}
	}
}

// TestUnmarshalJSON_LegacyConsequence проверяет legacy-форматы consequence.
func TestUnmarshalJSON_LegacyConsequence(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{"число", `7`, 7, false},
		{"строка", `"7"`, 7, false},
		{"строка с пробелами", `" 9 "`, 9, false},
		{"граница 1", `"1"`, 1, false},
		{"граница 10", `10`, 10, false},
		{"null", `null`, 0, true},
		{"пустая строка", `""`, 0, true},
		{"не число", `"много"`, 0, true},
		{"строка вне диапазона", `"42"`, 0, true},
		{"ноль", `0`, 0, true},
		{"отрицательное", `-3`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"id":"1","type":"ABCDE","date":"2024-01-01 00:00:00","consequence":` + tt.value + `}`
			var rec Record
			err := json.Unmarshal([]byte(data), &rec)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ожидалась ошибка, получено %+v", rec)
				}
				return
			}
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if rec.Consequence != tt.want {
				t.Errorf("Consequence: ожидалось %d, получено %d", tt.want, rec.Consequence)
			}
		})
	}

	// Отсутствующее поле
	var rec Record
	if err := json.Unmarshal([]byte(`{"type":"ABCDE"}`), &rec); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("ожидалась ErrInvalidRecord, получено %v", err)
	}
}

// TestUnmarshalJSON_UnknownType проверяет отказ для неизвестного типа.
func TestUnmarshalJSON_UnknownType(t *testing.T) {
	var rec Record
	err := json.Unmarshal([]byte(`{"id":"1","type":"DIARY"}`), &rec)
	if !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("ожидалась ErrInvalidRecord, получено %v", err)
	}
}

// TestSummary проверяет однострочное описание.
func TestSummary(t *testing.T) {
	abcde := Record{
		Type:        TypeABCDE,
		Date:        "2025-03-14 09:05:07",
		Adversity:   "발표",
		Consequence: 6,
		Effect:      "괜찮다",
		Memo:        "m",
	}
	want := "[2025-03-14 09:05:07] [ABCDE] 사건: 발표 | 감정점수: 6 | 새로운 생각: 괜찮다 | 메모: m"
	if got := abcde.Summary(); got != want {
		t.Errorf("ожидалось %q, получено %q", want, got)
	}

	sos := Record{Type: TypeSOS, Date: "2025-03-14 09:05:07", Course: "약 1분"}
	if got := sos.Summary(); got != "[2025-03-14 09:05:07] [SOS] 약 1분" {
		t.Errorf("неожиданное описание SOS: %q", got)
	}

	sos.Grounding = NewGrounding("a", "b", "c", "d", "e")
	if got := sos.Summary(); !strings.Contains(got, "본 것(a)") || !strings.Contains(got, "맛본 것(e)") {
		t.Errorf("в описании нет заземления: %q", got)
	}
}
