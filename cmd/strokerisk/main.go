// Command strokerisk evaluates a questionnaire from a file or stdin and
// prints the six-month stroke risk.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// errInvalidAnswers signals that the messages were already printed.
var errInvalidAnswers = errors.New("invalid answers")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalidAnswers) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "strokerisk",
		Short:         "Six-month stroke risk assessment",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEvaluateCmd(), newQuestionsCmd())
	return root
}
