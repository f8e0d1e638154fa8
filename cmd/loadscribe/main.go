package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "loadscribe",
		Usage: "Generate JMeter test plans from HAR captures and OpenAPI contracts",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Generate a test plan from a capture or contract file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Path to HAR or OpenAPI file"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output .jmx path (default: stdout)"},
					&cli.StringFlag{Name: "title", Usage: "Test plan title"},
					&cli.StringFlag{Name: "strategy", Usage: "Grouping strategy (by-tag, by-first-path-segment, by-ai-pattern, single-default-group)"},
					&cli.StringFlag{Name: "base-url", Usage: "Override the base URL detected from the input"},
					&cli.IntFlag{Name: "threads", Value: 10, Usage: "Virtual users per thread group"},
					&cli.IntFlag{Name: "rampup", Value: 30, Usage: "Ramp-up seconds"},
					&cli.IntFlag{Name: "duration", Usage: "Scheduler duration in seconds (0 = run loops)"},
					&cli.IntFlag{Name: "loops", Value: 1, Usage: "Loop count"},
					&cli.BoolFlag{Name: "forever", Usage: "Loop forever"},
					&cli.BoolFlag{Name: "assertions", Value: true, Usage: "Emit status and duration assertions"},
					&cli.BoolFlag{Name: "extractors", Usage: "Emit correlation extractors"},
					&cli.BoolFlag{Name: "datasource", Usage: "Emit an external CSV data source"},
					&cli.BoolFlag{Name: "ai", Usage: "Call the configured AI provider for analysis"},
					&cli.StringFlag{Name: "upload-project", Usage: "Upload the result to the artifact bucket under this project"},
				},
				Action: runGenerate,
			},
			{
				Name:  "insight",
				Usage: "Print AI analysis for a capture or contract file",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true},
				},
				Action: runInsight,
			},
			{
				Name:  "repair",
				Usage: "Repair an externally generated test plan",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "plan", Required: true, Usage: "Path to the .jmx document to repair"},
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "Original capture/contract, for body re-injection"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path (default: stdout)"},
					&cli.BoolFlag{Name: "datasource", Usage: "Also ensure an external CSV data source"},
				},
				Action: runRepair,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: runServe,
			},
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
