// Пакет cli — консольные команды Inner-Peace (cobra).
// Команды разделяют одно ядро: хранилище истории, пул вопросов и
// сервис журнала собираются один раз в PersistentPreRunE.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/innerpeace/internal/config"
	"github.com/bigkaa/innerpeace/internal/domain/question"
	"github.com/bigkaa/innerpeace/internal/domain/wizard"
	"github.com/bigkaa/innerpeace/internal/service"
	"github.com/bigkaa/innerpeace/internal/storage/recordstore"
)

// TickSource создаёт канал тиков дыхательной сессии и функцию остановки.
type TickSource func() (<-chan time.Time, func())

// app — общее состояние команд.
type app struct {
	in    *bufio.Reader
	out   io.Writer
	ticks TickSource

	historyFile string

	cfg     *config.Config
	logger  *slog.Logger
	store   *recordstore.Store
	pool    *question.Pool
	journal *service.JournalService
}

// Option — параметр NewRootCommand.
type Option func(*app)

// WithIO задаёт потоки ввода и вывода.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(a *app) {
		a.in = bufio.NewReader(in)
		a.out = out
	}
}

// WithTickSource подменяет источник тиков (по умолчанию time.Ticker с шагом 1s).
func WithTickSource(ts TickSource) Option {
	return func(a *app) {
		a.ticks = ts
	}
}

// NewRootCommand собирает дерево команд innerpeace.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &app{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		ticks: quantumTicker,
	}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "innerpeace",
		Short: "Inner-Peace — журнал осознанности",
		Long: `Inner-Peace помогает справиться с острым стрессом:
дыхательная техника 4-7-8 с заземлением 5-4-3-2-1 (sos) и тренировка
переосмысления по модели ABCDE (abcde). Записи хранятся в JSON-файле.`,
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup()
		},
	}
	root.SetOut(a.out)
	root.PersistentFlags().StringVar(&a.historyFile, "history-file", "",
		"путь к файлу истории (переопределяет IP_HISTORY_FILE)")

	root.AddCommand(
		newServeCmd(a),
		newHistoryCmd(a),
		newMigrateCmd(a),
		newQuestionCmd(a),
		newSOSCmd(a),
		newABCDECmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute запускает корневую команду с аргументами процесса.
func Execute() error {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		return err
	}
	return nil
}

// setup загружает конфигурацию и собирает компоненты ядра.
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка конфигурации: %w", err)
	}
	if a.historyFile != "" {
		cfg.HistoryFile = a.historyFile
	}
	a.cfg = cfg
	a.logger = config.SetupLogger(cfg)

	// 1. Хранилище истории
	var storeOpts []recordstore.Option
	if cfg.StoreFileLock {
		storeOpts = append(storeOpts, recordstore.WithFileLock())
	}
	a.store = recordstore.New(cfg.HistoryFile, a.logger, storeOpts...)

	// 2. Пул вопросов
	if cfg.QuestionsFile != "" {
		a.pool, err = question.LoadFile(cfg.QuestionsFile)
		if err != nil {
			return err
		}
	} else {
		a.pool = question.Default()
	}

	// 3. Сервис журнала
	a.journal = service.NewJournalService(a.store, a.pool, a.logger,
		service.WithRequiredAdversityBelief(cfg.RequireAdversityBelief),
		service.WithIdempotency(service.NewIdempotencyCache(cfg.IdempotencySize, cfg.IdempotencyTTL)),
	)

	a.logger.Debug("Компоненты инициализированы",
		slog.String("history_file", cfg.HistoryFile),
		slog.Int("questions", a.pool.Len()),
	)
	return nil
}

// errInputClosed — ввод закончился (EOF) посреди сценария.
var errInputClosed = errors.New("ввод закрыт")

// readLine читает строку ввода без завершающего перевода строки.
// Последняя строка без \n возвращается, следующий вызов вернёт errInputClosed.
func (a *app) readLine() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		if errors.Is(err, io.EOF) {
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// prompt печатает приглашение и читает ответ.
func (a *app) prompt(text string) (string, error) {
	fmt.Fprint(a.out, text)
	return a.readLine()
}

// askYesNo повторяет вопрос, пока не получит y/n.
func (a *app) askYesNo(text string) (bool, error) {
	for {
		answer, err := a.prompt(text)
		if err != nil {
			return false, err
		}
		switch wizard.ParseCommand(answer, true) {
		case wizard.CommandYes:
			return true, nil
		case wizard.CommandNo:
			return false, nil
		}
		fmt.Fprintln(a.out, "'y' 또는 'n'으로만 입력해주세요.")
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Показать версию",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("innerpeace %s\n", config.Version)
		},
	}
}
