package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bigkaa/innerpeace/internal/domain/breathing"
	"github.com/bigkaa/innerpeace/internal/domain/model"
	"github.com/bigkaa/innerpeace/internal/service"
)

// cancelChoice — пункт меню "отмена" при выборе курса.
const cancelChoice = "9"

// groundingPrompts — вопросы заземления 5-4-3-2-1 в порядке model.Senses.
var groundingPrompts = []string{
	"1) 지금 눈에 보이는 것 5가지:\n> ",
	"2) 지금 몸으로 느껴지는 촉감(의자, 옷, 피부 등) 4가지:\n> ",
	"3) 지금 들리는 소리 3가지:\n> ",
	"4) 지금 맡을 수 있는 냄새 2가지:\n> ",
	"5) 지금 떠오르는 맛 1가지:\n> ",
}

// phaseLines — подсказки активных фаз.
var phaseLines = map[breathing.Phase]string{
	breathing.PhaseInhale: fmt.Sprintf("들이마시세요 (%d초)...", breathing.InhaleUnits),
	breathing.PhaseHold:   fmt.Sprintf("참으세요 (%d초).......", breathing.HoldUnits),
	breathing.PhaseExhale: fmt.Sprintf("내뱉으세요 (%d초).....", breathing.ExhaleUnits),
}

// quantumTicker — источник тиков реального времени.
func quantumTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(breathing.Quantum)
	return t.C, t.Stop
}

func newSOSCmd(a *app) *cobra.Command {
	var course int
	cmd := &cobra.Command{
		Use:   "sos",
		Short: "Дыхательная техника 4-7-8 с заземлением",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.sos(cmd.Context(), course)
		},
	}
	cmd.Flags().IntVarP(&course, "course", "c", 0, "курс в минутах: 1, 2 или 3 (0 — выбрать в меню)")
	return cmd
}

func (a *app) sos(ctx context.Context, minutes int) error {
	fmt.Fprintln(a.out, "[SOS 모드] 4-7-8 호흡 테라피")
	fmt.Fprintln(a.out, "이 호흡은 심장 박동을 느리게 하고, 우리 몸의 '긴장 모드'를 '휴식 모드'로 바꾸는 데 도움을 줍니다.")

	var course breathing.Course
	if minutes == 0 {
		var ok bool
		var err error
		course, ok, err = a.chooseCourse()
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "SOS 모드를 취소합니다.")
			return nil
		}
	} else {
		var err error
		if course, err = breathing.ParseCourse(minutes); err != nil {
			return err
		}
	}

	fmt.Fprintln(a.out, "자세 안내:")
	fmt.Fprintln(a.out, "  - 허리를 세우고, 어깨 힘을 살짝 풀어 주세요.")
	fmt.Fprintln(a.out, "  - 턱을 살짝 당겨서 목이 편안한 위치로 오게 해 주세요.")
	if _, err := a.prompt("준비되셨으면 Enter를 누르세요...\n"); err != nil {
		return err
	}

	st, err := a.breathe(ctx, course)
	if st.Phase == breathing.PhaseCancelled {
		service.RecordBreathingSession(int(course), string(breathing.PhaseCancelled))
		fmt.Fprintln(a.out, "\n호흡을 중단했습니다. 기록은 저장되지 않습니다.")
		return nil
	}
	if err != nil {
		return err
	}
	service.RecordBreathingSession(int(course), string(breathing.PhaseDone))
	fmt.Fprintln(a.out, "\n[안내] 호흡이 끝났습니다. 마음이 조금 편안해지셨나요?")

	// Заземление 5-4-3-2-1
	fmt.Fprintln(a.out, "\n[그라운딩] 5-4-3-2-1 현실감 회복")
	fmt.Fprintln(a.out, "지금 이 순간, 주변을 천천히 둘러보며 아래를 적어 보세요.")
	answers := make([]string, len(groundingPrompts))
	for i, p := range groundingPrompts {
		if answers[i], err = a.prompt(p); err != nil {
			return err
		}
	}
	grounding := model.NewGrounding(answers[0], answers[1], answers[2], answers[3], answers[4])

	memo, err := a.prompt("\n(선택) 현재 경험에 대해 한 줄 메모를 남겨보세요:\n>> ")
	if err != nil {
		return err
	}

	save, err := a.askYesNo("\n이 세션을 기록하시겠습니까? (y/n) ")
	if err != nil || !save {
		return err
	}

	id, svcErr := a.journal.SaveSOS(service.SOSRequest{
		Course:    course.Label(),
		Memo:      memo,
		Grounding: grounding,
	}, "")
	if svcErr != nil {
		return svcErr
	}
	fmt.Fprintf(a.out, "\n[저장 완료] 오늘의 경험이 안전하게 기록되었습니다. (id: %s)\n", id)
	return nil
}

// chooseCourse показывает меню курсов. ok == false — пользователь отменил выбор.
func (a *app) chooseCourse() (course breathing.Course, ok bool, err error) {
	fmt.Fprintln(a.out, "\n코스 선택:")
	for _, c := range []breathing.Course{breathing.CourseOneMinute, breathing.CourseTwoMinutes, breathing.CourseThreeMinutes} {
		fmt.Fprintf(a.out, "%d. %s (%d회 반복)\n", int(c), c.Label(), c.Cycles())
	}
	fmt.Fprintf(a.out, "%s. 취소하고 돌아가기\n", cancelChoice)

	for {
		answer, err := a.prompt("원하는 코스를 선택하세요 (1-3 또는 9) >> ")
		if err != nil {
			return 0, false, err
		}
		answer = strings.TrimSpace(answer)
		if answer == cancelChoice {
			return 0, false, nil
		}
		n, convErr := strconv.Atoi(answer)
		if convErr != nil {
			fmt.Fprintln(a.out, "숫자를 입력해주세요.")
			continue
		}
		if course, err = breathing.ParseCourse(n); err != nil {
			fmt.Fprintln(a.out, "1에서 3 사이의 숫자로만 입력해주세요.")
			continue
		}
		return course, true, nil
	}
}

// breathe ведёт сессию по тикам до done или cancelled.
// SIGINT/SIGTERM прерывают сессию.
func (a *app) breathe(ctx context.Context, course breathing.Course) (breathing.State, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := breathing.NewController()
	tr, err := c.Start(course)
	if err != nil {
		return c.State(), err
	}
	a.printTransition(c.State(), tr)

	ticks, stopTicks := a.ticks()
	defer stopTicks()

	st, err := breathing.RunBlocking(ctx, c, ticks, func(st breathing.State, tr *breathing.Transition) {
		if tr != nil {
			a.printTransition(st, *tr)
		}
	})
	if errors.Is(err, context.Canceled) {
		return st, nil
	}
	return st, err
}

// printTransition печатает заголовок цикла и подсказку новой фазы.
func (a *app) printTransition(st breathing.State, tr breathing.Transition) {
	if tr.To == breathing.PhaseInhale {
		fmt.Fprintf(a.out, "\n[Cycle %d/%d]\n", tr.Cycle, st.TotalCycles)
		fmt.Fprintf(a.out, "코칭: %s\n", breathing.CoachingMessage(tr.Cycle))
	}
	if line, ok := phaseLines[tr.To]; ok {
		fmt.Fprintln(a.out, line)
	}
}
