package wizard

import "strings"

// Command — управляющая команда консольного ввода.
type Command int

const (
	// CommandText — обычный ответ на шаг
	CommandText Command = iota
	// CommandPrevious — "p", шаг назад
	CommandPrevious
	// CommandAbort — "m", выход в меню без сохранения
	CommandAbort
	// CommandYes — согласие (y, yes, ㅛ)
	CommandYes
	// CommandNo — отказ (n, no, ㅜ)
	CommandNo
)

// ParseCommand распознаёт команду в строке ввода (без учёта регистра).
// y/n распознаются только при yesNo == true (шаг CONFIRM).
func ParseCommand(input string, yesNo bool) Command {
	s := strings.ToLower(strings.TrimSpace(input))
	switch s {
	case "p":
		return CommandPrevious
	case "m":
		return CommandAbort
	}
	if !yesNo {
		return CommandText
	}
	switch s {
	case "y", "yes", "ㅛ":
		return CommandYes
	case "n", "no", "ㅜ":
		return CommandNo
	}
	return CommandText
}

// Apply применяет строку консольного ввода к мастеру.
// На шаге CONFIRM нераспознанный ввод игнорируется (saved == false, err == nil).
func (w *Wizard) Apply(input string) (saved bool, err error) {
	confirm := w.step == StepConfirm
	switch ParseCommand(input, confirm) {
	case CommandPrevious:
		return false, w.Previous()
	case CommandAbort:
		return false, w.Abort()
	case CommandYes:
		_, err := w.Confirm(true)
		return err == nil, err
	case CommandNo:
		_, err := w.Confirm(false)
		return false, err
	}
	if confirm {
		return false, nil
	}
	return false, w.Submit(input)
}
