package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamstate/guest-assistant/internal/assistant"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/monitoring"
)

// answerJSON mirrors the chat API response.
type answerJSON struct {
	Reply             string  `json:"reply"`
	Intent            string  `json:"intent"`
	PropertyName      *string `json:"propertyName"`
	InformationToFind *string `json:"informationToFind"`
	FieldType         *string `json:"fieldType"`
	DatasetIntentType *string `json:"datasetIntentType"`
	DatasetOwnerName  *string `json:"datasetOwnerName"`
	InputMessage      string  `json:"inputMessage"`
	Outcome           string  `json:"outcome"`
	MatchedUnit       string  `json:"matchedUnit,omitempty"`
	LatencyMs         int64   `json:"latencyMs"`
	Error             string  `json:"error,omitempty"`
}

func toAnswerJSON(message string, reply *assistant.Reply, latency time.Duration, err error) answerJSON {
	if err != nil {
		return answerJSON{
			Intent:       string(domain.IntentOther),
			InputMessage: message,
			Outcome:      string(monitoring.OutcomeError),
			LatencyMs:    latency.Milliseconds(),
			Error:        err.Error(),
		}
	}
	q := reply.Query
	return answerJSON{
		Reply:             reply.Text,
		Intent:            string(q.Intent),
		PropertyName:      q.PropertyName,
		InformationToFind: q.InformationToFind,
		FieldType:         q.FieldType,
		DatasetIntentType: q.DatasetIntentType,
		DatasetOwnerName:  q.DatasetOwnerName,
		InputMessage:      q.InputMessage,
		Outcome:           string(reply.Outcome),
		MatchedUnit:       reply.MatchedUnit,
		LatencyMs:         latency.Milliseconds(),
	}
}

func newAskCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "ask <message>",
		Short: "Answer a guest message end to end",
		Example: `  guest-assistant-cli ask "what's the wifi password for Clara Lane"
  guest-assistant-cli ask --json "how many properties does DS/Maven have"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			return withRuntime(timeout, func(ctx context.Context, rt *assistant.Runtime) error {
				stop := ui.Spinner("Thinking...")
				start := time.Now()
				reply, err := rt.Engine.Answer(ctx, message)
				stop()

				if outputJSON {
					return ui.JSON(toAnswerJSON(message, reply, time.Since(start), err))
				}
				if err != nil {
					return err
				}

				ui.Text(reply.Text)
				if verbose {
					q := reply.Query
					ui.Section("details")
					ui.KeyValue("Intent", q.Intent)
					ui.KeyValue("Property", domain.Deref(q.PropertyName))
					ui.KeyValue("Information", domain.Deref(q.InformationToFind))
					ui.KeyValue("Field type", domain.Deref(q.FieldType))
					ui.KeyValue("Dataset intent", domain.Deref(q.DatasetIntentType))
					ui.KeyValue("Owner", domain.Deref(q.DatasetOwnerName))
					ui.KeyValue("Matched unit", reply.MatchedUnit)
					ui.KeyValue("Outcome", reply.Outcome)
					ui.KeyValue("Latency", FormatDuration(time.Since(start)))
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 60*time.Second, "overall deadline")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var (
		file    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Answer every question in a file, one per line",
		Long: `Batch reads questions (one per line, blank lines and lines starting with #
skipped) and answers them in order, reporting the outcome of each.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := readQuestions(file)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				ui.Warning("No questions in %s", file)
				return nil
			}

			return withRuntime(timeout, func(ctx context.Context, rt *assistant.Runtime) error {
				bar := ui.ProgressBar(len(questions), "Answering")
				results := make([]answerJSON, 0, len(questions))
				failures := 0

				for _, q := range questions {
					start := time.Now()
					reply, err := rt.Engine.Answer(ctx, q)
					if err != nil {
						failures++
						if ctx.Err() != nil {
							return fmt.Errorf("batch interrupted after %d questions: %w", len(results), err)
						}
					}
					results = append(results, toAnswerJSON(q, reply, time.Since(start), err))
					if bar != nil {
						_ = bar.Add(1)
					}
				}

				if outputJSON {
					return ui.JSON(results)
				}

				rows := make([][]string, 0, len(results))
				for _, r := range results {
					rows = append(rows, []string{
						truncate(r.InputMessage, 48),
						r.Intent,
						domain.Deref(r.FieldType),
						r.Outcome,
						FormatDuration(time.Duration(r.LatencyMs) * time.Millisecond),
					})
				}
				ui.Table([]string{"Question", "Intent", "Field", "Outcome", "Latency"}, rows)

				if failures > 0 {
					ui.Warning("%d of %d questions failed", failures, len(results))
				} else {
					ui.Success("Answered %d questions", len(results))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "questions file (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall deadline")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions file: %w", err)
	}
	defer f.Close()

	var questions []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		questions = append(questions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions file: %w", err)
	}
	return questions, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
