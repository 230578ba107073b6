package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Просмотр и удаление записей журнала",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Показать записи от новых к старым",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.historyList(limit)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 0, "максимум записей (0 — все)")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Удалить запись по ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return a.historyDelete(args[0])
		},
	}

	cmd.AddCommand(listCmd, deleteCmd)
	return cmd
}

func (a *app) historyList(limit int) error {
	if limit < 0 {
		return fmt.Errorf("--limit не может быть отрицательным: %d", limit)
	}

	records := a.journal.History(limit)
	if len(records) == 0 {
		fmt.Fprintln(a.out, "아직 저장된 기록이 없습니다.")
		fmt.Fprintln(a.out, "사고 전환 훈련이나 SOS 모드를 통해 첫 기록을 남겨보세요.")
		return nil
	}

	fmt.Fprintln(a.out, "[최신순으로 기록을 표시합니다]")
	for _, r := range records {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, r.Summary())
		fmt.Fprintf(a.out, "id: %s\n", r.ID)
		fmt.Fprintln(a.out, strings.Repeat("-", 20))
	}
	return nil
}

func (a *app) historyDelete(id string) error {
	if svcErr := a.journal.Delete(id); svcErr != nil {
		return svcErr
	}
	fmt.Fprintf(a.out, "기록이 삭제되었습니다: %s\n", id)
	return nil
}
