package commands

import (
	"context"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
	"path/filepath"
)

func FilterCommand() *cli.Command {
	return &cli.Command{
		Name:  "filter",
		Usage: "inspect the saved list filter",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the saved filter",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					return printJSON(cmd, app.Storage.LoadFilter(ctx))
				}),
			},
			{
				Name:  "reset",
				Usage: "restore the default filter",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					return app.Storage.SaveFilter(ctx, entities.DefaultFilter())
				}),
			},
		},
	}
}

func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "summarize job applications",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			stats := app.Storage.Stats(app.Storage.ListRecords(ctx))

			table := tablewriter.NewWriter(cmd.Root().Writer)
			table.Header("Metric", "Value")
			_ = table.Append("Total", fmt.Sprintf("%d", stats.Total))
			_ = table.Append("Applied", fmt.Sprintf("%d", stats.Applied))
			_ = table.Append("Interviewing", fmt.Sprintf("%d", stats.Interviewing))
			_ = table.Append("Offered", fmt.Sprintf("%d", stats.Offered))
			_ = table.Append("Success rate", fmt.Sprintf("%d%%", stats.SuccessRate))
			return table.Render()
		}),
	}
}

func UploadCommand() *cli.Command {
	return &cli.Command{
		Name:      "upload",
		Usage:     "store a file and optionally attach it to a job application",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "attach", Usage: "resume or cover-letter"},
			&cli.StringFlag{Name: "id", Usage: "job application to attach the file to"},
		},
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			path, err := requireArg(cmd, 0, "file")
			if err != nil {
				return err
			}

			attach := cmd.String("attach")
			if attach != "" && attach != "resume" && attach != "cover-letter" {
				return fmt.Errorf("unknown attachment kind %q", attach)
			}
			if attach != "" && cmd.String("id") == "" {
				return fmt.Errorf("--id is required with --attach")
			}

			stored, err := storeFile(ctx, app, path)
			if err != nil {
				return err
			}

			if attach != "" {
				record, err := app.Storage.GetRecord(ctx, cmd.String("id"))
				if err != nil {
					return err
				}
				if record == nil {
					return fmt.Errorf("job application %s not found", cmd.String("id"))
				}
				if attach == "resume" {
					record.ResumePath = stored
				} else {
					record.CoverLetterPath = stored
				}
				if _, err = app.Storage.UpdateRecord(ctx, *record); err != nil {
					return err
				}
			}

			if len(stored) > 64 {
				_, err = fmt.Fprintf(cmd.Root().Writer, "stored %s locally (%d characters)\n", filepath.Base(path), len(stored))
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, stored)
			return err
		}),
	}
}

func HealthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check the connection to the applications server",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			if !app.Storage.RemoteEnabled() {
				_, err := fmt.Fprintln(cmd.Root().Writer, "remote storage is not configured, using local storage only")
				return err
			}

			state := app.Storage.CheckHealth(ctx)
			verdict := "disconnected"
			if state.LastKnownConnected {
				verdict = "connected"
			}
			_, err := fmt.Fprintf(cmd.Root().Writer, "%s (checked at %s)\n", verdict, state.CheckedAt.Format("2006-01-02 15:04:05"))
			return err
		}),
	}
}

func LogsCommand() *cli.Command {
	return &cli.Command{
		Name:  "logs",
		Usage: "inspect the locally kept log history",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the log history",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					for _, entry := range app.Local.Logs(ctx) {
						if _, err := fmt.Fprintf(cmd.Root().Writer, "%s [%s] %s %s\n",
							entry.Timestamp, entry.Level, entry.Message, entry.Data); err != nil {
							return err
						}
					}
					return nil
				}),
			},
			{
				Name:  "clear",
				Usage: "remove the log history",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					return app.Local.ClearLogs(ctx)
				}),
			},
		},
	}
}
