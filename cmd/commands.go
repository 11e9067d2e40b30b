package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/1F47E/location-marker/pkg/browse"
	"github.com/1F47E/location-marker/pkg/marker"
	"github.com/1F47E/location-marker/pkg/models"
	"github.com/1F47E/location-marker/pkg/postgis"
	"github.com/1F47E/location-marker/pkg/registry"
	"github.com/1F47E/location-marker/pkg/search"
	"github.com/1F47E/location-marker/pkg/watcher"
)

func (a *app) allCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "List every waypoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList("", nil)
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [page]",
		Short: "List waypoints, optionally one page at a time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList("", args)
		},
	}
}

func (a *app) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <keyword> [page]",
		Short: "Search waypoint names and descriptions (case-sensitive)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSearch(args)
		},
	}
}

func (a *app) runSearch(args []string) error {
	return a.runList(args[0], args[1:])
}

func (a *app) runList(keyword string, pageArgs []string) error {
	page := 0
	if len(pageArgs) > 0 {
		n, err := strconv.Atoi(pageArgs[0])
		if err != nil {
			return fmt.Errorf("invalid page %q", pageArgs[0])
		}
		page = n
	}

	svc, err := a.service()
	if err != nil {
		return err
	}

	res := svc.List(search.Query{Keyword: keyword})
	if len(pageArgs) > 0 {
		res = svc.Page(keyword, page, 0)
	}
	a.printer().Listing(res, keyword)
	return nil
}

func (a *app) addCmd() *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "add <name> (<x> <y> <z> <dim> | here) [desc...]",
		Short: "Add a waypoint at the given coordinates or at your position",
		Long: `Add a waypoint.

  locmark add Home 0 64 0 0 my base
  locmark --positions positions.yaml add --session steve Portal here

Flags go before the name so negative coordinates are not read as flags.

dim is 0 for the overworld, -1 for the nether and 1 for the end.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			name := args[0]

			var loc models.Location
			if args[1] == "here" {
				if session == "" {
					return errors.New("--session is required with here")
				}
				loc, err = svc.AddHere(cmd.Context(), session, name, joinDesc(args[2:]))
			} else {
				pos, dim, rest, perr := parsePosition(args[1:])
				if perr != nil {
					return perr
				}
				loc, err = svc.Add(cmd.Context(), name, pos, dim, joinDesc(rest))
			}
			if err != nil {
				return addError(name, err)
			}

			p := a.printer()
			p.Success("waypoint %s added", name)
			p.Announce(loc)
			return nil
		},
	}
	// negative coordinates must not be read as flags
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVarP(&session, "session", "s", "", "Session whose position is used with here")
	return cmd
}

func addError(name string, err error) error {
	switch {
	case errors.Is(err, marker.ErrDuplicateName):
		return fmt.Errorf("waypoint %s already exists", name)
	case errors.Is(err, marker.ErrPositionUnavailable):
		return fmt.Errorf("cannot add %s: %w", name, err)
	default:
		return fmt.Errorf("failed to add waypoint %s: %w", name, err)
	}
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del <name>",
		Short: "Delete a waypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			loc, err := svc.Delete(cmd.Context(), args[0])
			if errors.Is(err, marker.ErrNotFound) {
				return fmt.Errorf("waypoint %s not found", args[0])
			}
			if err != nil {
				return err
			}

			p := a.printer()
			p.Success("deleted waypoint %s", loc.Name)
			p.Announce(loc)
			return nil
		},
	}
}

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show every detail of a waypoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}
			loc, err := svc.Info(args[0])
			if err != nil {
				return fmt.Errorf("waypoint %s not found", args[0])
			}
			a.printer().Detail(loc)
			return nil
		},
	}
}

func (a *app) nearCmd() *cobra.Command {
	var (
		k      int
		radius float64
	)

	cmd := &cobra.Command{
		Use:   "near [-k N | -r R] <x> <y> <z> <dim>",
		Short: "Find the waypoints closest to a position",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, dim, _, err := parsePosition(args)
			if err != nil {
				return err
			}
			svc, err := a.service()
			if err != nil {
				return err
			}

			if radius > 0 {
				a.printer().Hits(svc.Within(pos, dim, radius))
				return nil
			}
			a.printer().Hits(svc.Near(pos, dim, k))
			return nil
		},
	}
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().IntVarP(&k, "neighbors", "k", 5, "Number of waypoints to show")
	cmd.Flags().Float64VarP(&radius, "radius", "r", 0, "Show every waypoint within this many blocks instead")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [keyword]",
		Short: "Print the listing again whenever the storage file changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) == 1 {
				keyword = args[0]
			}
			return a.runWatch(cmd.Context(), keyword, debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Wait this long after the last change")
	return cmd
}

func (a *app) runWatch(ctx context.Context, keyword string, debounce time.Duration) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	reg := svc.Registry()
	if reg.Len() == 0 {
		// the watched directory has to exist
		if err := reg.Save(); err != nil {
			return err
		}
	}

	w, err := watcher.New(watcher.Config{Path: reg.Path(), Debounce: debounce})
	if err != nil {
		return err
	}
	defer w.Stop()

	onChange, err := w.Start()
	if err != nil {
		return err
	}

	p := a.printer()
	p.Listing(svc.List(search.Query{Keyword: keyword}), keyword)
	a.logger.Info("watching", "file", reg.Path())

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors():
			a.logger.Warn("watch error", "error", err)
		case _, ok := <-onChange:
			if !ok {
				return errors.New("storage watcher stopped")
			}
			if err := reg.Load(); err != nil {
				// the previous contents stay in memory
				a.logger.Warn("reload failed", "error", err)
				continue
			}
			a.logger.Debug("reloaded", "count", reg.Len())
			p.Listing(svc.List(search.Query{Keyword: keyword}), keyword)
		}
	}
}

func (a *app) browseCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse waypoints interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service()
			if err != nil {
				return err
			}

			prog := tea.NewProgram(browse.New(svc, a.cfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))

			if follow {
				reg := svc.Registry()
				if reg.Len() == 0 {
					if err := reg.Save(); err != nil {
						return err
					}
				}
				w, err := watcher.New(watcher.DefaultConfig(reg.Path()))
				if err != nil {
					return err
				}
				defer w.Stop()

				onChange, err := w.Start()
				if err != nil {
					return err
				}
				go func() {
					for range onChange {
						if err := reg.Load(); err != nil {
							a.logger.Warn("reload failed", "error", err)
							continue
						}
						prog.Send(browse.ReloadMsg{})
					}
				}()
			}

			_, err = prog.Run()
			if errors.Is(err, tea.ErrProgramKilled) && cmd.Context().Err() != nil {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&follow, "follow", true, "Reload when the storage file changes")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		dsn      string
		host     string
		port     int
		user     string
		password string
		dbname   string
	)

	cmd := &cobra.Command{
		Use:   "export-pg",
		Short: "Mirror every waypoint into a PostGIS table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				dsn = postgis.DSN(host, port, user, password, dbname)
			}
			reg, err := registry.Open(a.cfg.StoragePath())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			exp, err := postgis.Open(ctx, dsn)
			if err != nil {
				return err
			}
			defer exp.Close()

			if err := exp.InitSchema(ctx); err != nil {
				return err
			}
			start := time.Now()
			locs := reg.List()
			if err := exp.Export(ctx, locs); err != nil {
				return err
			}
			a.logger.Info("export finished", "count", len(locs), "elapsed", time.Since(start))
			a.printer().Success("exported %d waypoints to %s", len(locs), postgis.Table)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "Connection string, overrides the other connection flags")
	cmd.Flags().StringVar(&host, "host", "localhost", "PostgreSQL host")
	cmd.Flags().IntVar(&port, "port", 5432, "PostgreSQL port")
	cmd.Flags().StringVar(&user, "user", "postgres", "PostgreSQL user")
	cmd.Flags().StringVar(&password, "password", "postgres", "PostgreSQL password")
	cmd.Flags().StringVar(&dbname, "dbname", "geodb", "PostgreSQL database")
	return cmd
}

// parsePosition reads "x y z dim" from the front of args and returns the rest.
// Only the three vanilla dimensions are accepted here.
func parsePosition(args []string) (models.Point, int, []string, error) {
	if len(args) < 4 {
		return models.Point{}, 0, nil, errors.New("expected <x> <y> <z> <dim>")
	}

	var coords [3]float64
	for i, name := range [...]string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return models.Point{}, 0, nil, fmt.Errorf("invalid %s %q", name, args[i])
		}
		coords[i] = v
	}

	dim, err := strconv.Atoi(args[3])
	if err != nil || dim < -1 || dim > 1 {
		return models.Point{}, 0, nil, fmt.Errorf("invalid dim %q: must be -1, 0 or 1", args[3])
	}

	pos := models.Point{X: coords[0], Y: coords[1], Z: coords[2]}
	if err := pos.Validate(); err != nil {
		return models.Point{}, 0, nil, err
	}
	return pos, dim, args[4:], nil
}

func joinDesc(words []string) *string {
	if len(words) == 0 {
		return nil
	}
	return models.WithDesc(strings.Join(words, " "))
}
