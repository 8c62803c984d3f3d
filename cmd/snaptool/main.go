// Package main implements snaptool, the operator tool for snapshot files:
// inspect envelope headers, verify file integrity, and apply retention to
// snapshot directories.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	anticheat "github.com/maxgamesNL/MaxAntiCheat"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "snaptool",
		Usage:   "Inspect, verify, and prune MaxAntiCheat snapshot files",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			inspectCommand(),
			verifyCommand(),
			listCommand(),
			pruneCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "snapshot-versions",
			Aliases: []string{"V"},
			Usage:   "Comma-separated snapshot versions this tool accepts",
			EnvVars: []string{"SNAPTOOL_VERSIONS"},
			Value:   "1",
		},
		&cli.StringFlag{
			Name:    "codec",
			Aliases: []string{"c"},
			Usage:   "Payload codec: gob, json",
			EnvVars: []string{"SNAPTOOL_CODEC"},
			Value:   "gob",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Log store activity to stderr",
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show envelope headers without decoding payloads",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit machine-readable JSON",
			},
		},
		Action: runInspect,
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Check files end to end: envelope, version, stream, checksum",
		ArgsUsage: "FILE...",
		Action:    runVerify,
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the snapshots in a rotation directory, oldest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Snapshot directory",
				Required: true,
			},
		},
		Action: runList,
	}
}

func pruneCommand() *cli.Command {
	return &cli.Command{
		Name:  "prune",
		Usage: "Delete snapshots beyond the retention policy (newest always kept)",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dir",
				Aliases:  []string{"d"},
				Usage:    "Snapshot directory",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "keep",
				Aliases: []string{"k"},
				Usage:   "How many snapshots to retain (0 = unlimited)",
				Value:   anticheat.DefaultMaxSnapshots,
			},
			&cli.DurationFlag{
				Name:  "max-age",
				Usage: "Delete snapshots older than this (0 = unlimited)",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Print what would be deleted without deleting",
			},
		},
		Action: runPrune,
	}
}

func runInspect(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("inspect needs at least one file")
	}
	store, err := storeFromFlags(c)
	if err != nil {
		return err
	}

	infos := make([]anticheat.SnapshotInfo, 0, c.NArg())
	for _, path := range c.Args().Slice() {
		info, serr := store.Stat(path)
		if serr != nil {
			return fmt.Errorf("%s: %w", path, serr)
		}
		infos = append(infos, info)
	}

	if c.Bool("json") {
		out, jerr := json.MarshalIndent(infos, "", "  ")
		if jerr != nil {
			return jerr
		}
		fmt.Fprintln(c.App.Writer, string(out))
		return nil
	}
	printInfos(c, infos, true)
	return nil
}

func runVerify(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("verify needs at least one file")
	}
	store, err := storeFromFlags(c)
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range c.Args().Slice() {
		version, verr := store.Verify(path)
		if verr != nil {
			failed++
			fmt.Fprintf(c.App.Writer, "FAIL  %s: %v\n", path, verr)
			continue
		}
		fmt.Fprintf(c.App.Writer, "OK    %s (version %d)\n", path, version)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed verification", failed, c.NArg())
	}
	return nil
}

func runList(c *cli.Context) error {
	keeper, err := keeperFromFlags(c)
	if err != nil {
		return err
	}
	defer keeper.Close()

	infos, err := keeper.List()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintln(c.App.Writer, "no snapshots")
		return nil
	}
	printInfos(c, infos, false)
	return nil
}

func runPrune(c *cli.Context) error {
	keeper, err := keeperFromFlags(c,
		anticheat.WithMaxSnapshots(c.Int("keep")),
		anticheat.WithMaxSnapshotAge(c.Duration("max-age")),
	)
	if err != nil {
		return err
	}
	defer keeper.Close()

	if c.Bool("dry-run") {
		victims, perr := keeper.PruneCandidates()
		if perr != nil {
			return perr
		}
		for _, path := range victims {
			fmt.Fprintf(c.App.Writer, "would delete %s\n", path)
		}
		fmt.Fprintf(c.App.Writer, "%d snapshots would be deleted\n", len(victims))
		return nil
	}

	deleted, err := keeper.Prune()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%d snapshots deleted\n", deleted)
	return nil
}

// storeFromFlags builds a store from the global flags.
func storeFromFlags(c *cli.Context) (*anticheat.Store, error) {
	versions, err := parseVersions(c.String("snapshot-versions"))
	if err != nil {
		return nil, err
	}

	options := []anticheat.StoreOption{}
	switch codec := c.String("codec"); codec {
	case "gob":
		options = append(options, anticheat.WithCodec(anticheat.GobCodec{}))
	case "json":
		options = append(options, anticheat.WithCodec(anticheat.JSONCodec{}))
	default:
		return nil, fmt.Errorf("unknown codec %q (want gob or json)", codec)
	}
	if c.Bool("verbose") {
		options = append(options,
			anticheat.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}
	return anticheat.New(versions, options...)
}

// keeperFromFlags builds a read-only keeper over the --dir directory. The
// directory must already exist: NewKeeper would create it, and a mistyped
// path should fail instead of producing an empty directory that lists as
// "no snapshots".
func keeperFromFlags(c *cli.Context, options ...anticheat.KeeperOption) (*anticheat.Keeper, error) {
	dir := c.String("dir")
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("snapshot directory %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("snapshot directory %s: not a directory", dir)
	}

	store, err := storeFromFlags(c)
	if err != nil {
		return nil, err
	}
	return anticheat.NewKeeper(store, dir, store.Versions()[0], nil, options...)
}

func parseVersions(csv string) ([]uint64, error) {
	parts := strings.Split(csv, ",")
	versions := make([]uint64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad version %q: %w", p, err)
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no snapshot versions given")
	}
	return versions, nil
}

func printInfos(c *cli.Context, infos []anticheat.SnapshotInfo, checksums bool) {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	if checksums {
		fmt.Fprintln(tw, "PATH\tVERSION\tCODEC\tPAYLOAD\tSIZE\tMODIFIED\tCHECKSUM")
	} else {
		fmt.Fprintln(tw, "PATH\tVERSION\tCODEC\tPAYLOAD\tSIZE\tMODIFIED")
	}
	for _, info := range infos {
		if checksums {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\t%016x\n",
				info.Path, info.Version, info.Codec, info.PayloadSize, info.Size,
				info.ModTime.Format(time.RFC3339), info.Checksum)
		} else {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%s\n",
				info.Path, info.Version, info.Codec, info.PayloadSize, info.Size,
				info.ModTime.Format(time.RFC3339))
		}
	}
	tw.Flush()
}
