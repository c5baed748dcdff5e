package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreamstate/guest-assistant/internal/assistant"
	"github.com/dreamstate/guest-assistant/internal/dataset"
	"github.com/dreamstate/guest-assistant/internal/query"
)

const datasetTimeout = 60 * time.Second

func newClassifyCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "classify <information>",
		Short: "Show which field a question maps to",
		Example: `  guest-assistant-cli classify "wifi password"
  guest-assistant-cli classify "" --message "where can I park my car"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info := ""
			if len(args) == 1 {
				info = args[0]
			}

			field, ok := query.NewFieldClassifier().Classify(info, message)
			columns, _ := query.HeaderSpellings(field)

			if outputJSON {
				return ui.JSON(map[string]interface{}{
					"information": info,
					"message":     message,
					"classified":  ok,
					"fieldType":   field,
					"columns":     columns,
				})
			}

			if !ok {
				ui.Warning("No field matched %q", strings.TrimSpace(info+" "+message))
				return nil
			}
			ui.Success("%s", field)
			ui.KeyValue("Phrase", query.Phrase(field))
			ui.KeyValue("Columns", strings.Join(columns, " | "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "full guest message to classify alongside the information")
	return cmd
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <property name>",
		Short: "Show which row a property name resolves to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")

			return withSnapshot(func(snap *dataset.Snapshot) error {
				row := query.MatchProperty(name, snap)

				if outputJSON {
					out := map[string]interface{}{"query": name, "matched": row != nil}
					if row != nil {
						out["row"] = rowMap(snap, row)
					}
					return ui.JSON(out)
				}

				if row == nil {
					ui.Warning("No property matches %q", name)
					return nil
				}
				ui.Success("Matched %s", describeRow(snap, row))
				for i, header := range snap.Headers {
					if cell := strings.TrimSpace(dataset.Cell(row, i)); cell != "" {
						ui.KeyValue(header, cell)
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func newAggregateCmd() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "aggregate <intent>",
		Short: "Answer a dataset-wide question",
		Long: fmt.Sprintf(`Aggregate answers one of the dataset intents:

  %s`, strings.Join(intentNames(), "\n  ")),
		Example: `  guest-assistant-cli aggregate owner_with_most_properties
  guest-assistant-cli aggregate list_properties_by_owner --owner "DS/Maven"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			intent := query.DatasetIntentID(args[0])
			if !intent.Supported() {
				return fmt.Errorf("unsupported dataset intent %q (want one of: %s)", args[0], strings.Join(intentNames(), ", "))
			}

			return withSnapshot(func(snap *dataset.Snapshot) error {
				reply := query.Aggregate(intent, owner, snap)
				if outputJSON {
					return ui.JSON(map[string]string{
						"datasetIntentType": string(intent),
						"datasetOwnerName":  owner,
						"reply":             reply,
					})
				}
				ui.Text(reply)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "owner name for the by-owner intents")
	return cmd
}

// headerMapping reports where a field was found in the sheet.
type headerMapping struct {
	Field     query.FieldID `json:"fieldType"`
	Column    string        `json:"column,omitempty"`
	Spellings []string      `json:"spellings"`
	Populated int           `json:"populatedRows"`
}

func newHeadersCmd() *cobra.Command {
	var missingOnly bool

	cmd := &cobra.Command{
		Use:   "headers",
		Short: "Show how each field maps onto the sheet's columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSnapshot(func(snap *dataset.Snapshot) error {
				mappings := mapHeaders(snap)
				if missingOnly {
					var missing []headerMapping
					for _, m := range mappings {
						if m.Column == "" {
							missing = append(missing, m)
						}
					}
					mappings = missing
				}

				if outputJSON {
					return ui.JSON(map[string]interface{}{
						"headers":   snap.Headers,
						"rows":      len(snap.Rows),
						"fetchedAt": snap.FetchedAt,
						"fields":    mappings,
					})
				}

				ui.Info("%d columns, %d rows, fetched %s", len(snap.Headers), len(snap.Rows), snap.FetchedAt.Format(time.RFC3339))
				rows := make([][]string, 0, len(mappings))
				for _, m := range mappings {
					column := m.Column
					if column == "" {
						column = "(missing)"
					}
					rows = append(rows, []string{string(m.Field), column, fmt.Sprintf("%d/%d", m.Populated, len(snap.Rows))})
				}
				ui.Table([]string{"Field", "Column", "Populated"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&missingOnly, "missing", false, "only list fields with no matching column")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently audited questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Audit.Driver == "none" {
				return fmt.Errorf("audit database not configured (set AUDIT_DATABASE_URL or audit.driver)")
			}

			return withRuntime(datasetTimeout, func(ctx context.Context, rt *assistant.Runtime) error {
				events, err := rt.Audit.Recent(ctx, limit)
				if err != nil {
					return err
				}

				if outputJSON {
					return ui.JSON(events)
				}

				if len(events) == 0 {
					ui.Info("No questions recorded yet")
					return nil
				}
				rows := make([][]string, 0, len(events))
				for _, e := range events {
					subject := e.PropertyName
					if e.DatasetIntent != "" {
						subject = e.DatasetIntent
					}
					rows = append(rows, []string{
						e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
						e.Intent,
						subject,
						e.FieldType,
						string(e.Outcome),
						fmt.Sprintf("%dms", e.LatencyMs),
					})
				}
				ui.Table([]string{"When", "Intent", "Subject", "Field", "Outcome", "Latency"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries")
	return cmd
}

func withSnapshot(fn func(snap *dataset.Snapshot) error) error {
	return withRuntime(datasetTimeout, func(ctx context.Context, rt *assistant.Runtime) error {
		stop := ui.Spinner("Loading property table...")
		snap, err := rt.LoadDataset(ctx)
		stop()
		if err != nil {
			return err
		}
		return fn(snap)
	})
}

func mapHeaders(snap *dataset.Snapshot) []headerMapping {
	fields := query.Fields()
	out := make([]headerMapping, 0, len(fields))
	for _, field := range fields {
		spellings, _ := query.HeaderSpellings(field)
		m := headerMapping{Field: field, Spellings: spellings}
		if idx := snap.FirstColumn(spellings...); idx >= 0 {
			m.Column = snap.Headers[idx]
		}
		for _, row := range snap.Rows {
			if _, ok := query.Lookup(snap, row, field); ok {
				m.Populated++
			}
		}
		out = append(out, m)
	}
	return out
}

func rowMap(snap *dataset.Snapshot, row []string) map[string]string {
	out := make(map[string]string, len(snap.Headers))
	for i, header := range snap.Headers {
		if cell := strings.TrimSpace(dataset.Cell(row, i)); cell != "" {
			out[header] = cell
		}
	}
	return out
}

func describeRow(snap *dataset.Snapshot, row []string) string {
	unit := strings.TrimSpace(dataset.Cell(row, snap.ColumnIndex(query.ColumnUnit)))
	title := strings.TrimSpace(dataset.Cell(row, snap.FirstColumn(query.TitleColumns...)))
	switch {
	case unit != "" && title != "":
		return fmt.Sprintf("Unit %s – %s", unit, title)
	case title != "":
		return title
	case unit != "":
		return "Unit " + unit
	default:
		return "(Unnamed property)"
	}
}

func intentNames() []string {
	intents := query.DatasetIntents()
	names := make([]string, len(intents))
	for i, id := range intents {
		names[i] = string(id)
	}
	return names
}
