package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCmd — однократная загрузка файла истории: записям без id
// назначаются идентификаторы, строковые оценки приводятся к числам.
func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Назначить ID legacy-записям в файле истории",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			records := a.store.LoadAll()
			fmt.Fprintf(a.out, "%s: %d записей\n", a.store.Path(), len(records))
			return nil
		},
	}
}

func newQuestionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "question",
		Short: "Показать случайный рефлексивный вопрос",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintln(a.out, a.journal.Question())
			return nil
		},
	}
}
