package commands

import (
	"context"
	"fmt"
	"github.com/maxaizer/apply-archive/internal/entities"
	"github.com/urfave/cli/v3"
)

func InterviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "interview",
		Usage: "manage interviews of a job application",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "schedule an interview",
				ArgsUsage: "<record-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "interview date"},
					&cli.StringFlag{Name: "type", Usage: "phone, video, onsite, technical or other"},
					&cli.StringFlag{Name: "interviewer", Usage: "interviewer name"},
					&cli.StringFlag{Name: "notes", Usage: "free text notes"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					recordID, err := requireArg(cmd, 0, "record-id")
					if err != nil {
						return err
					}

					interview := entities.InterviewRecord{
						Date:            cmd.String("date"),
						Type:            entities.InterviewType(cmd.String("type")),
						InterviewerName: cmd.String("interviewer"),
						Notes:           cmd.String("notes"),
					}
					record, err := app.Storage.AddInterview(ctx, recordID, interview)
					if err != nil {
						return err
					}
					added := record.Interviews[len(record.Interviews)-1]
					_, err = fmt.Fprintln(cmd.Root().Writer, added.ID)
					return err
				}),
			},
			{
				Name:      "complete",
				Usage:     "mark an interview as completed",
				ArgsUsage: "<record-id> <interview-id>",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					recordID, err := requireArg(cmd, 0, "record-id")
					if err != nil {
						return err
					}
					interviewID, err := requireArg(cmd, 1, "interview-id")
					if err != nil {
						return err
					}

					record, err := app.Storage.GetRecord(ctx, recordID)
					if err != nil {
						return err
					}
					if record == nil {
						return fmt.Errorf("job application %s not found", recordID)
					}
					interview, _, found := record.FindInterview(interviewID)
					if !found {
						return fmt.Errorf("interview %s not found", interviewID)
					}
					interview.Completed = true

					_, err = app.Storage.UpdateInterview(ctx, recordID, interview)
					return err
				}),
			},
			{
				Name:      "remove",
				Usage:     "remove an interview",
				ArgsUsage: "<record-id> <interview-id>",
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *AppContext) error {
					recordID, err := requireArg(cmd, 0, "record-id")
					if err != nil {
						return err
					}
					interviewID, err := requireArg(cmd, 1, "interview-id")
					if err != nil {
						return err
					}

					_, err = app.Storage.RemoveInterview(ctx, recordID, interviewID)
					return err
				}),
			},
		},
	}
}
