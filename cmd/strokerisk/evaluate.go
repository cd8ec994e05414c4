package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nyashahama/stroke-risk-backend/internal/questionnaire"
)

type evaluateOptions struct {
	asJSON  bool
	saveDir string
	now     func() time.Time
}

func newEvaluateCmd() *cobra.Command {
	opts := &evaluateOptions{now: time.Now}

	cmd := &cobra.Command{
		Use:   "evaluate [file|-]",
		Short: "Evaluate a JSON answers file (or stdin)",
		Long: `Reads questionnaire answers as a JSON object keyed by question id and prints
the assessment. A file written by --save is accepted as input too.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			return runEvaluate(cmd, src, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&opts.saveDir, "save", "", "write the answers to a timestamped file in `DIR`")
	return cmd
}

func runEvaluate(cmd *cobra.Command, src string, opts *evaluateOptions) error {
	data, err := readInput(cmd.InOrStdin(), src)
	if err != nil {
		return err
	}

	answers, err := parseAnswers(data)
	if err != nil {
		return err
	}

	if msgs := questionnaire.Validate(answers); msgs != nil {
		for _, m := range msgs {
			fmt.Fprintln(cmd.ErrOrStderr(), m)
		}
		return errInvalidAnswers
	}

	res, err := answers.Evaluate()
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if opts.saveDir != "" {
		path, err := questionnaire.Save(opts.saveDir, answers, opts.now())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "answers saved to", path)
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprint(out, renderResult(res))
	return err
}

func readInput(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	return data, nil
}

// parseAnswers accepts either a bare answers object or a saved responses
// file, which nests the answers under "responses".
func parseAnswers(data []byte) (questionnaire.Answers, error) {
	var saved struct {
		Responses json.RawMessage `json:"responses"`
	}
	if err := json.Unmarshal(data, &saved); err != nil {
		return questionnaire.Answers{}, fmt.Errorf("parse answers: %w", err)
	}
	if len(saved.Responses) > 0 {
		data = saved.Responses
	}

	a, err := questionnaire.DecodeAnswers(data)
	if err != nil {
		return questionnaire.Answers{}, fmt.Errorf("parse answers: %w", err)
	}
	return a, nil
}
