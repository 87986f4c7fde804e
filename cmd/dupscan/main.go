package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	dupscan "github.com/dtynan/dupscan/pkg"
)

const version = "1.0.0"

// errUsage marks configuration mistakes (bad flags, wrong argument count) so
// main can exit 2 instead of 1.
var errUsage = errors.New("usage error")

type cliOptions struct {
	dryRun     bool
	verbosity  int
	hashName   string
	jsonOutput bool
	configPath string
	debugFlags string
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "dupscan: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Usage: dupscan [-n] [-v] <directory>\n")
			fmt.Fprintf(os.Stderr, "Try 'dupscan --help' for more information.\n")
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:     "dupscan [-n] [-v] <directory>",
		Short:   "Scan a directory tree and report duplicate files",
		Version: version,
		Long: `dupscan walks a directory tree and reports every file that is a
byte-for-byte duplicate of a file seen earlier in the walk. Nothing is
modified. File sizes are used as a first pass; contents are only hashed once
two files share a size.

The scan stops at the first problem it cannot trust: an unreadable directory,
an unreadable file, or a device/socket/FIFO entry.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected exactly one directory argument, got %d", errUsage, len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.dryRun, "dry-run", "n", false,
		"report only; reserved for a future replace-with-link action")
	cmd.Flags().CountVarP(&opts.verbosity, "verbose", "v",
		"narrate classification and match decisions (repeat for more)")
	cmd.Flags().StringVar(&opts.hashName, "hash", "",
		"digest algorithm: sha1, sha256 or sha512")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false,
		"emit the duplicate report as JSON")
	cmd.Flags().StringVar(&opts.configPath, "config", "",
		"config file (default $HOME/.dupscan/config)")
	cmd.Flags().StringVar(&opts.debugFlags, "debug", "",
		"comma-separated debug flags (walk,index)")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", errUsage, err)
	})

	return cmd
}

func runScan(cmd *cobra.Command, root string, opts *cliOptions) error {
	cfg, err := dupscan.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}

	verboseCfg := cfg.GetVerboseConfig()
	level := verboseCfg.Level
	if opts.verbosity > level {
		level = opts.verbosity
	}
	dupscan.SetVerboseLevel(level)

	debug := verboseCfg.Debug
	if opts.debugFlags != "" {
		debug = opts.debugFlags
	}
	dupscan.SetDebugFlags(debug)

	hashName := cfg.GetHashConfig().Default
	if opts.hashName != "" {
		hashName = opts.hashName
	}

	outputCfg := cfg.GetOutputConfig()
	if outputCfg.Color == "never" {
		color.NoColor = true
	}
	jsonOutput := opts.jsonOutput || outputCfg.Format == "json"

	dryRun := cfg.GetScanConfig().DryRun || opts.dryRun

	scanOpts := dupscan.Options{
		Algorithm: hashName,
		DryRun:    dryRun,
	}
	if !jsonOutput {
		dupHeading := color.New(color.FgYellow, color.Bold)
		scanOpts.OnDuplicate = func(duplicate, original *dupscan.FileRecord) {
			dupHeading.Fprintf(cmd.OutOrStdout(), ">>> DUP file: %s. ", duplicate.Path)
			fmt.Fprintf(cmd.OutOrStdout(), "Original: %s.\n", original.Path)
		}
	}

	result, err := dupscan.Scan(root, scanOpts)
	if err != nil {
		return err
	}

	if jsonOutput {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	}

	printSummary(result.Stats)
	return nil
}

// printSummary narrates the scan counters at verbose level 1+.
func printSummary(stats dupscan.ScanStats) {
	dupscan.VerboseLog(1, "scanned %d directories, %d files (%d empty skipped, %d symlinks skipped)",
		stats.Directories, stats.FilesConsidered, stats.EmptySkipped, stats.SymlinksSkipped)
	dupscan.VerboseLog(1, "%d originals, %d duplicates (%d bytes), %d size collisions, %d digests computed",
		stats.Originals, stats.Duplicates, stats.DuplicateBytes, stats.SizeCollisions, stats.DigestsComputed)
}
