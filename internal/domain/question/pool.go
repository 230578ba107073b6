// Пакет question — фиксированный пул рефлексивных вопросов для шага D
// мастера ABCDE. Пул создаётся один раз и разделяется всеми адаптерами
// (HTTP, CLI) только на чтение.
package question

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPool — пул не содержит ни одного вопроса.
var ErrEmptyPool = errors.New("пул вопросов пуст")

// DefaultQuestions — встроенный набор вопросов.
var DefaultQuestions = []string{
	"그렇게 생각하는 것이 지금 이 문제를 해결하는 데 실제로 도움이 됩니까?",
	"가장 친한 친구가 나와 똑같은 상황에 처했다면, 친구에게도 그렇게 말해줄 건가요?",
	"이 상황을 긍정적으로, 혹은 배울 점으로 해석할 수 있는 여지는 전혀 없나요?",
	"1년 뒤에도 이 일이 지금처럼 내 인생을 뒤흔들 만큼 심각할까요?",
	"이 일이 내 인생 전체를 놓고 봤을 때 얼마나 중요한 부분인가요?",
	"지금 하는 걱정이 실제로 일어날 확률은 얼마나 되나요?",
	"스피노사우르스는 당신이 이러길 원하나요? 🦖",
}

// Pool — неизменяемый набор вопросов с равновероятной выборкой.
// Draw потокобезопасен: генератор защищён мьютексом.
type Pool struct {
	questions []string

	mu  sync.Mutex
	rng *rand.Rand
}

// Option — параметр конструктора Pool.
type Option func(*Pool)

// WithRand задаёт источник случайности (для детерминированных тестов).
func WithRand(rng *rand.Rand) Option {
	return func(p *Pool) {
		p.rng = rng
	}
}

// NewPool создаёт пул из копии переданных вопросов.
// Пустые строки отбрасываются; пустой пул — ошибка.
func NewPool(questions []string, opts ...Option) (*Pool, error) {
	cleaned := make([]string, 0, len(questions))
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q != "" {
			cleaned = append(cleaned, q)
		}
	}
	if len(cleaned) == 0 {
		return nil, ErrEmptyPool
	}

	p := &Pool{questions: cleaned}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p, nil
}

// Default возвращает пул со встроенными вопросами.
func Default(opts ...Option) *Pool {
	p, _ := NewPool(DefaultQuestions, opts...)
	return p
}

// fileFormat — формат YAML-файла с вопросами.
//
//	questions:
//	  - "..."
type fileFormat struct {
	Questions []string `yaml:"questions"`
}

// LoadFile читает пул из YAML-файла.
func LoadFile(path string, opts ...Option) (*Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла вопросов %s: %w", path, err)
	}

	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ошибка разбора файла вопросов %s: %w", path, err)
	}

	p, err := NewPool(f.Questions, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Draw возвращает случайный вопрос (равномерное распределение).
func (p *Pool) Draw() string {
	p.mu.Lock()
	i := p.rng.IntN(len(p.questions))
	p.mu.Unlock()
	return p.questions[i]
}

// Len возвращает количество вопросов.
func (p *Pool) Len() int {
	return len(p.questions)
}

// All возвращает копию всех вопросов.
func (p *Pool) All() []string {
	result := make([]string, len(p.questions))
	copy(result, p.questions)
	return result
}
