package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quiz-session-service/internal/config"
)

// NewQuizzesCmd lists the quizzes available from the configured source.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "quizzes",
		Short: "List available quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(*configPath)
			if err != nil {
				return err
			}
			source, _, closeSource, err := openQuizSource(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeSource()

			list, err := source.ListQuizzes(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no quizzes found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tQUESTIONS")
			for _, q := range list {
				fmt.Fprintf(w, "%d\t%s\t%d\n", q.ID, q.Title, q.QuestionCount)
			}
			return w.Flush()
		},
	}
}
