package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/1F47E/location-marker/pkg/config"
	"github.com/1F47E/location-marker/pkg/marker"
	"github.com/1F47E/location-marker/pkg/position"
	"github.com/1F47E/location-marker/pkg/present"
	"github.com/1F47E/location-marker/pkg/registry"
)

// app carries the flag values and the state built from them before a command runs
type app struct {
	configPath    string
	storageFile   string
	positionsFile string
	verbose       bool
	plain         bool

	out    io.Writer
	errOut io.Writer

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return (&app{out: out, errOut: errOut}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "locmark [keyword] [page]",
		Short: "Named waypoints for a voxel world",
		Long: `Store, search and share named 3D waypoints across the overworld, the nether and the end.

A bare keyword is the same as "locmark search <keyword> [page]".`,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.runSearch(args)
		},
	}
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVarP(&a.storageFile, "file", "f", "", "Waypoint storage file, overrides the config")
	rootCmd.PersistentFlags().StringVar(&a.positionsFile, "positions", "", "YAML file with live session positions")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&a.plain, "plain", false, "Disable colors")

	rootCmd.AddCommand(
		a.allCmd(),
		a.listCmd(),
		a.searchCmd(),
		a.addCmd(),
		a.delCmd(),
		a.infoCmd(),
		a.nearCmd(),
		a.watchCmd(),
		a.browseCmd(),
		a.exportCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the CLI with args and returns the process exit code. Failures
// are reported on errOut.
func execute(ctx context.Context, out, errOut io.Writer, args []string) int {
	a := &app{out: out, errOut: errOut}
	cmd := a.rootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		a.errPrinter().Failure("Error: %v", err)
		return 1
	}
	return 0
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.storageFile != "" {
		abs, err := filepath.Abs(a.storageFile)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", a.storageFile, err)
		}
		cfg.StorageFile = abs
	}
	a.cfg = cfg

	level := cfg.SlogLevel()
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.logger.Debug("config loaded", "config", a.configPath, "storage", cfg.StoragePath())
	return nil
}

// service opens the registry and wires the marker service around it
func (a *app) service() (*marker.Service, error) {
	reg, err := registry.Open(a.cfg.StoragePath())
	if err != nil {
		return nil, err
	}

	opts := []marker.Option{marker.WithLogger(a.logger)}
	if a.positionsFile != "" {
		positions, err := position.LoadStatic(a.positionsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, marker.WithPositions(positions))
	}
	return marker.NewService(reg, a.cfg, opts...), nil
}

func (a *app) printer() *present.Printer {
	return present.NewPrinter(a.out, a.cfg, present.Plain(a.plain || !isTerminal(a.out)))
}

// errPrinter writes to errOut; the config may still be zero when setup failed
func (a *app) errPrinter() *present.Printer {
	return present.NewPrinter(a.errOut, a.cfg, present.Plain(a.plain || !isTerminal(a.errOut)))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
