// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output result as JSON",
	}
}

func prettyFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "pretty",
		Usage: "Pretty-print JSON output",
		Value: true,
	}
}

// runCommand executes the full batch cycle in one process.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run one full cycle: extract, transform, publish",
		Flags:  []cli.Flag{configFlag(), jsonFlag(), prettyFlag()},
		Action: r.RunCycle,
	}
}

// extractCommand writes one raw snapshot.
func extractCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "extract",
		Usage:  "Fetch new releases and write a timestamped snapshot",
		Flags:  []cli.Flag{configFlag(), jsonFlag(), prettyFlag()},
		Action: r.Extract,
	}
}

// transformCommand flattens one snapshot into a processed batch.
func transformCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "Flatten a snapshot into album and track tables",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "snapshot",
				Aliases:  []string{"s"},
				Usage:    "Path to the snapshot file to transform",
				Required: true,
			},
			jsonFlag(),
			prettyFlag(),
		},
		Action: r.Transform,
	}
}

// publishCommand promotes a processed batch to latest.
func publishCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Record a batch in the registry and refresh the latest pointers",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "albums",
				Usage:    "Path to the processed albums file",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "tracks",
				Usage:    "Path to the processed tracks file",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Path to the source snapshot, recorded for lineage",
			},
			jsonFlag(),
			prettyFlag(),
		},
		Action: r.Publish,
	}
}

// latestCommand reads the current latest pointers.
func latestCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "latest",
		Usage:  "Show the current latest pointers from the registry",
		Flags:  []cli.Flag{configFlag(), jsonFlag(), prettyFlag()},
		Action: r.Latest,
	}
}

// batchesCommand lists recently published batches.
func batchesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "batches",
		Usage: "List recently published batches",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of batches to list",
				Value: 10,
			},
			jsonFlag(),
			prettyFlag(),
		},
		Action: r.Batches,
	}
}

// setupCommand handles configuration and registry initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Create a configuration file from the embedded template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "registry",
				Usage:  "Initialize the registry database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRegistry,
			},
		},
	}
}
