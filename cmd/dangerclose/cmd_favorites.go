package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dangerclose/internal/munitions"
)

// =============================================================================
// FAVORITES COMMANDS
// =============================================================================

var favCmd = &cobra.Command{
	Use:   "fav",
	Short: "Manage favorite weapons",
}

var favLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List favorites in the order they were added",
	RunE:  runFavLs,
}

var favAddCmd = &cobra.Command{
	Use:   "add <id>...",
	Short: "Add weapons to favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFavAdd,
}

var favRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Remove weapons from favorites",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFavRm,
}

var favPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop favorites that no longer name a weapon",
	RunE:  runFavPrune,
}

func init() {
	favCmd.AddCommand(favLsCmd)
	favCmd.AddCommand(favAddCmd)
	favCmd.AddCommand(favRmCmd)
	favCmd.AddCommand(favPruneCmd)
}

func runFavLs(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ids := s.nav.Favorites()
	if len(ids) == 0 {
		fmt.Println("No favorites")
		return nil
	}
	for _, id := range ids {
		w := s.nav.Lookup(id)
		if w == nil {
			fmt.Printf("     %4d  (missing, run 'dangerclose fav prune')\n", id)
			continue
		}
		fmt.Println(formatWeaponRow(s.nav, w))
	}
	return nil
}

func runFavAdd(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	for _, id := range ids {
		w := s.nav.Lookup(id)
		if w == nil {
			return fmt.Errorf("weapon %d: %w", id, munitions.ErrNotFound)
		}
		if s.nav.IsFavorite(id) {
			fmt.Printf("%s is already a favorite\n", munitions.DisplayName(w.Name))
			continue
		}
		if !s.nav.AddFavorite(id) {
			fmt.Printf("%s is a flight weapon and cannot be a favorite\n", munitions.DisplayName(w.Name))
			continue
		}
		logger.Debug("Favorite added", zap.Int("id", id))
		fmt.Printf("Added %s to favorites\n", munitions.DisplayName(w.Name))
	}
	return nil
}

func runFavRm(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	for _, id := range ids {
		if !s.nav.IsFavorite(id) {
			fmt.Printf("%d is not a favorite\n", id)
			continue
		}
		s.nav.RemoveFavorite(id)
		logger.Debug("Favorite removed", zap.Int("id", id))
		fmt.Printf("Removed %d from favorites\n", id)
	}
	return nil
}

func runFavPrune(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	pruned := s.nav.PruneFavorites()
	fmt.Printf("Pruned %d favorites\n", len(pruned))
	for _, id := range pruned {
		fmt.Printf("  %d\n", id)
	}
	return nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
