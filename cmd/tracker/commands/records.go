package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/maxaizer/apply-archive/internal/services"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"os"
	"path/filepath"
)

// recordFlags are shared by add and update; only flags set on the command line are applied.
func recordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "company", Usage: "company name"},
		&cli.StringFlag{Name: "position", Usage: "position title"},
		&cli.StringFlag{Name: "location", Usage: "job location"},
		&cli.StringFlag{Name: "description", Usage: "job description"},
		&cli.StringFlag{Name: "date", Usage: "application date, e.g. 2024-06-01"},
		&cli.StringFlag{Name: "status", Usage: "saved, applied, interviewing, offered, rejected, accepted or withdrawn"},
		&cli.StringFlag{Name: "notes", Usage: "free text notes"},
		&cli.StringFlag{Name: "salary", Usage: "salary range"},
		&cli.StringFlag{Name: "url", Usage: "job posting URL"},
		&cli.StringFlag{Name: "contact-name", Usage: "contact person"},
		&cli.StringFlag{Name: "contact-email", Usage: "contact email"},
		&cli.StringFlag{Name: "resume", Usage: "path of a resume file to attach"},
		&cli.StringFlag{Name: "cover-letter", Usage: "path of a cover letter file to attach"},
	}
}

func applyRecordFlags(ctx context.Context, cmd *cli.Command, app *AppContext, record *entities.JobRecord) error {
	fields := map[string]*string{
		"company":       &record.CompanyName,
		"position":      &record.Position,
		"location":      &record.Location,
		"description":   &record.JobDescription,
		"date":          &record.ApplicationDate,
		"notes":         &record.Notes,
		"salary":        &record.Salary,
		"url":           &record.URL,
		"contact-name":  &record.ContactName,
		"contact-email": &record.ContactEmail,
	}
	for name, field := range fields {
		if cmd.IsSet(name) {
			*field = cmd.String(name)
		}
	}

	if cmd.IsSet("status") {
		status := entities.Status(cmd.String("status"))
		if !status.IsValid() {
			return fmt.Errorf("unknown status %q", status)
		}
		record.Status = status
	}

	attachments := map[string]*string{"resume": &record.ResumePath, "cover-letter": &record.CoverLetterPath}
	for name, field := range attachments {
		if !cmd.IsSet(name) {
			continue
		}
		path, err := storeFile(ctx, app, cmd.String(name))
		if err != nil {
			return err
		}
		*field = path
	}
	return nil
}

func storeFile(ctx context.Context, app *AppContext, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", path)
	}
	return app.Storage.StoreFile(ctx, filepath.Base(path), content)
}

func ListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "list job applications using the saved filter",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search", Usage: "case-insensitive text to look for"},
			&cli.StringFlag{Name: "status", Usage: "status to show, or all"},
			&cli.StringFlag{Name: "sort-by", Usage: "date, company or status"},
			&cli.StringFlag{Name: "order", Usage: "asc or desc"},
			&cli.BoolFlag{Name: "save", Usage: "remember the resulting filter"},
		},
		Action: withApp(listAction),
	}
}

func listAction(ctx context.Context, cmd *cli.Command, app *AppContext) error {
	filter := app.Storage.LoadFilter(ctx)
	if cmd.IsSet("search") {
		filter.Search = cmd.String("search")
	}
	if cmd.IsSet("status") {
		filter.Status = entities.Status(cmd.String("status"))
	}
	if cmd.IsSet("sort-by") {
		filter.SortBy = entities.SortBy(cmd.String("sort-by"))
	}
	if cmd.IsSet("order") {
		filter.SortOrder = entities.SortOrder(cmd.String("order"))
	}
	if err := filter.Validate(); err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	if cmd.Bool("save") {
		if err := app.Storage.SaveFilter(ctx, filter); err != nil {
			return err
		}
	}

	records := services.ApplyFilters(app.Storage.ListRecords(ctx), filter)

	table := tablewriter.NewWriter(cmd.Root().Writer)
	table.Header("ID", "Company", "Position", "Status", "Applied", "Interviews", "Updated")
	for _, r := range records {
		_ = table.Append(r.ID, r.CompanyName, r.Position, string(r.Status), r.ApplicationDate,
			fmt.Sprintf("%d", len(r.Interviews)), r.LastUpdated)
	}
	return table.Render()
}

func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "print one job application as JSON",
		ArgsUsage: "<id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			id, err := requireArg(cmd, 0, "id")
			if err != nil {
				return err
			}

			record, err := app.Storage.GetRecord(ctx, id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("job application %s not found", id)
			}
			return printJSON(cmd, record)
		}),
	}
}

func AddCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "record a new job application",
		Flags: recordFlags(),
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			var record entities.JobRecord
			if err := applyRecordFlags(ctx, cmd, app, &record); err != nil {
				return err
			}

			created, err := app.Storage.CreateRecord(ctx, record)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, created.ID)
			return err
		}),
	}
}

func UpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "change fields of a job application",
		ArgsUsage: "<id>",
		Flags:     recordFlags(),
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			id, err := requireArg(cmd, 0, "id")
			if err != nil {
				return err
			}

			record, err := app.Storage.GetRecord(ctx, id)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("job application %s not found", id)
			}
			if err = applyRecordFlags(ctx, cmd, app, record); err != nil {
				return err
			}

			updated, err := app.Storage.UpdateRecord(ctx, *record)
			if err != nil {
				return err
			}
			return printJSON(cmd, updated)
		}),
	}
}

func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "remove a job application",
		ArgsUsage: "<id>",
		Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
			id, err := requireArg(cmd, 0, "id")
			if err != nil {
				return err
			}

			deleted, err := app.Storage.DeleteRecord(ctx, id)
			if err != nil {
				return err
			}
			if !deleted {
				_, err = fmt.Fprintf(cmd.Root().Writer, "job application %s was already gone\n", id)
				return err
			}
			_, err = fmt.Fprintf(cmd.Root().Writer, "deleted %s\n", id)
			return err
		}),
	}
}

func requireArg(cmd *cli.Command, index int, name string) (string, error) {
	value := cmd.Args().Get(index)
	if value == "" {
		return "", fmt.Errorf("missing argument: %s", name)
	}
	return value, nil
}

func printJSON(cmd *cli.Command, v any) error {
	encoder := json.NewEncoder(cmd.Root().Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
