package commands

import "github.com/urfave/cli/v3"

func Root() *cli.Command {
	return &cli.Command{
		Name:  "tracker",
		Usage: "keep track of job applications, online or offline",
		Commands: []*cli.Command{
			ListCommand(),
			ShowCommand(),
			AddCommand(),
			UpdateCommand(),
			DeleteCommand(),
			InterviewCommand(),
			FilterCommand(),
			StatsCommand(),
			UploadCommand(),
			HealthCommand(),
			LogsCommand(),
		},
	}
}
