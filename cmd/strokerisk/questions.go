package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nyashahama/stroke-risk-backend/internal/questionnaire"
)

func newQuestionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "List the questionnaire",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qs, err := questionnaire.Questions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, q := range qs {
				fmt.Fprintln(out, renderQuestion(q))
			}
			return nil
		},
	}
}

func renderQuestion(q questionnaire.Question) string {
	var b strings.Builder
	b.WriteString(styles.bold.Render(q.ID))
	if q.Required {
		b.WriteString(styles.muted.Render(" (required)"))
	}
	b.WriteString("\n  " + q.Text)

	switch {
	case len(q.Options) > 0:
		b.WriteString("\n  " + styles.muted.Render("options: "+strings.Join(q.Options, ", ")))
	case q.Type == questionnaire.TypeBoolean:
		b.WriteString("\n  " + styles.muted.Render("true or false"))
	case q.Min != nil && q.Max != nil:
		b.WriteString("\n  " + styles.muted.Render(fmt.Sprintf("number, %g to %g", *q.Min, *q.Max)))
	}
	if q.DependsOn != "" {
		b.WriteString("\n  " + styles.muted.Render("only when "+q.DependsOn+" is true"))
	}
	return b.String()
}
