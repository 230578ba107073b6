package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bigkaa/innerpeace/internal/domain/wizard"
)

// stepPrompts — приглашения шагов мастера.
var stepPrompts = map[wizard.Step]string{
	wizard.StepAdversity:   "\n[A] 어떤 사건 때문에 스트레스를 받으셨나요?\n>> ",
	wizard.StepBelief:      "\n[B] 그 사건에 대해 순간적으로 든 생각은 무엇인가요?\n>> ",
	wizard.StepConsequence: "\n[C] 그로 인한 감정의 고통을 1~10 사이 숫자로 입력해주세요.\n>> ",
	wizard.StepDisputation: "\n[D] 위 질문에 대해 스스로 반박하거나 답변해 보세요.\n>> ",
	wizard.StepEffect:      "\n[E] 논박을 통해 새롭게 정리된 합리적인 생각은 무엇인가요?\n>> ",
	wizard.StepMemo:        "\n(선택) 현재 훈련에 대해 한 줄 메모를 남겨보세요:\n>> ",
	wizard.StepConfirm:     "\n이 훈련을 기록하시겠습니까? (y/n) ",
}

func newABCDECmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "abcde",
		Short: "Тренировка переосмысления по модели ABCDE",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.abcde()
		},
	}
}

// abcde ведёт мастер по строкам ввода. Конец ввода равносилен "m".
func (a *app) abcde() error {
	fmt.Fprintln(a.out, "[사고 전환 훈련] ABCDE 모델링")
	fmt.Fprintln(a.out, "정보: 각 단계에서 이전 단계로 가려면 'p', 메인 메뉴로 가려면 'm'을 입력하세요.")

	w := wizard.New(a.pool, a.store)

	for !w.Finished() {
		step := w.Step()
		if step == wizard.StepDisputation {
			fmt.Fprintln(a.out, "\nInner-Peace 시스템이 당신의 생각에 대해 묻습니다:")
			fmt.Fprintf(a.out, "\"%s\"\n", w.Question())
		}

		input, err := a.prompt(stepPrompts[step])
		if errors.Is(err, errInputClosed) {
			_ = w.Abort()
			break
		}
		if err != nil {
			return err
		}

		saved, err := w.Apply(input)
		switch {
		case errors.Is(err, wizard.ErrNoPrevious):
			fmt.Fprintln(a.out, "첫 단계에서는 뒤로 갈 수 없습니다.")
		case errors.Is(err, wizard.ErrInvalidConsequence):
			fmt.Fprintln(a.out, "1에서 10 사이의 숫자로만 입력해주세요.")
		case errors.Is(err, wizard.ErrSaveFailed):
			fmt.Fprintln(a.out, "오류: 파일을 쓰는 데 실패했습니다. 다시 시도하려면 'y'를 입력하세요.")
		case err != nil:
			return err
		case saved:
			fmt.Fprintln(a.out, "\n[저장 완료] 오늘의 훈련이 성공적으로 기록되었습니다.")
		case step == wizard.StepConfirm && w.Step() == wizard.StepConfirm:
			fmt.Fprintln(a.out, "'y' 또는 'n'으로만 입력해주세요.")
		}
	}

	if w.Step() != wizard.StepSaved {
		fmt.Fprintln(a.out, "\n훈련을 종료합니다. 기록은 저장되지 않았습니다.")
	}
	return nil
}
