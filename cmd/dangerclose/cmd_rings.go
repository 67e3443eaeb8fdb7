package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dangerclose/internal/munitions"
)

// =============================================================================
// RING COMMANDS
// =============================================================================

var errNoTarget = errors.New("no target: pass --target or set session.target")

var onCmd = &cobra.Command{
	Use:   "on <id>...",
	Short: "Draw the rings of weapons around the target",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(args, true)
	},
}

var offCmd = &cobra.Command{
	Use:   "off <id>...",
	Short: "Remove the rings of weapons from the target",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runToggle(args, false)
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every ring drawn around the target and deactivate all weapons",
	RunE:  runClear,
}

var ringsCmd = &cobra.Command{
	Use:   "rings",
	Short: "Inspect the range-ring ledger",
}

var ringsLsCmd = &cobra.Command{
	Use:   "ls [target]",
	Short: "List rings by target and category",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRingsLs,
}

var ringsPurgeCmd = &cobra.Command{
	Use:   "purge <weapon> <category>",
	Short: "Remove a weapon's rings from every target",
	Long: `Removes every ring of one weapon from all targets. The weapon is given
as its ring key, "<name>[<id>]".

Example:
  dangerclose rings purge "GBU-12[179]" Air_Delivered_Bombs`,
	Args: cobra.ExactArgs(2),
	RunE: runRingsPurge,
}

var ringsHideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Hide the rings drawn around the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRingsVisible(false)
	},
}

var ringsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the rings drawn around the target",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRingsVisible(true)
	},
}

func init() {
	ringsCmd.AddCommand(ringsLsCmd)
	ringsCmd.AddCommand(ringsPurgeCmd)
	ringsCmd.AddCommand(ringsHideCmd)
	ringsCmd.AddCommand(ringsShowCmd)
}

func runToggle(args []string, active bool) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Session.Target == "" {
		return errNoTarget
	}

	for _, id := range ids {
		var ok bool
		if active {
			ok = s.nav.Activate(id)
		} else {
			ok = s.nav.Deactivate(id)
		}
		if !ok {
			return fmt.Errorf("weapon %d: %w", id, munitions.ErrNotFound)
		}
		w := s.nav.Lookup(id)
		logger.Debug("Ring toggled", zap.Int("id", id), zap.Bool("active", active))
		if active {
			fmt.Printf("Drew %s around %s (%dm / %dm)\n", munitions.DisplayName(w.Name), s.cfg.Session.Target, w.InnerRange(), w.OuterRange())
		} else {
			fmt.Printf("Removed %s from %s\n", munitions.DisplayName(w.Name), s.cfg.Session.Target)
		}
	}
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Session.Target == "" {
		return errNoTarget
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetRingsTimeout())
	defer cancel()

	n, err := s.ledger.RemoveAllForTarget(ctx, s.cfg.Session.Target, s.cfg.Session.FromLine)
	if err != nil {
		return err
	}
	cleared := s.nav.DeactivateAll()
	fmt.Printf("Removed %d rings from %s, deactivated %d weapons\n", n, s.cfg.Session.Target, cleared)
	return nil
}

func runRingsLs(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetRingsTimeout())
	defer cancel()

	var targets []string
	if len(args) == 1 {
		targets = args
	} else if targets, err = s.ledger.Targets(ctx); err != nil {
		return err
	}
	if len(targets) == 0 {
		fmt.Println("No rings drawn")
		return nil
	}

	for _, t := range targets {
		groups, err := s.ledger.TargetMunitions(ctx, t)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", t)
		if len(groups) == 0 {
			fmt.Println("  (no rings)")
		}
		for _, g := range groups {
			fmt.Printf("  %s\n", munitions.DisplayName(g.Category))
			for _, r := range g.Rings {
				hidden := ""
				if !r.Visible {
					hidden = " (hidden)"
				}
				line := ""
				if r.FromLine != "" {
					line = " [" + r.FromLine + "]"
				}
				fmt.Printf("    %-36s %5dm %5dm%s%s\n", r.Weapon, r.InnerRange, r.OuterRange, line, hidden)
			}
		}
	}
	return nil
}

func runRingsPurge(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetRingsTimeout())
	defer cancel()

	n, err := s.ledger.RemoveWeaponFromAllTargets(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Printf("Removed %s from %d targets\n", args[0], n)
	return nil
}

func runRingsVisible(visible bool) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Session.Target == "" {
		return errNoTarget
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.GetRingsTimeout())
	defer cancel()

	n, err := s.ledger.SetVisible(ctx, s.cfg.Session.Target, s.cfg.Session.FromLine, visible)
	if err != nil {
		return err
	}
	state := "Hid"
	if visible {
		state = "Showed"
	}
	fmt.Printf("%s %d rings around %s\n", state, n, s.cfg.Session.Target)
	return nil
}
