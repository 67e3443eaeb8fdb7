package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dangerclose/internal/munitions"
)

// =============================================================================
// CUSTOM THREAT RING COMMANDS
// =============================================================================

var customCmd = &cobra.Command{
	Use:   "custom",
	Short: "Manage custom threat rings",
	Long: `Custom threat rings are user-defined REDs and MSDs stored in customs.xml
next to the favorites list. They get ids above the bundled catalog.

Examples:
  dangerclose custom add-red --name "IED (VBIED)" --standing 1200 --prone 900
  dangerclose custom add-msd --name "Range 7 .50 cal" --standing 2000 --ricochet-fan "45° / 1500m"
  dangerclose custom edit 220 --standing 1300
  dangerclose custom rm 220 221`,
}

var customLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List custom threat rings",
	RunE:  runCustomLs,
}

var customAddRedCmd = &cobra.Command{
	Use:   "add-red",
	Short: "Create a custom RED",
	RunE:  runCustomAddRed,
}

var customAddMsdCmd = &cobra.Command{
	Use:   "add-msd",
	Short: "Create a custom MSD",
	RunE:  runCustomAddMsd,
}

var customEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a custom threat ring; unset flags keep their values",
	Args:  cobra.ExactArgs(1),
	RunE:  runCustomEdit,
}

var customRmCmd = &cobra.Command{
	Use:   "rm <id>...",
	Short: "Remove custom threat rings",
	Long:  `Removes custom threat rings. Removed entries are unfavorited and their rings cleared.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCustomRm,
}

// Custom field flags
var (
	customName           string
	customDescription    string
	customStanding       string
	customProne          string
	customProneProtected string
	customRicochetFan    string
)

func init() {
	for _, c := range []*cobra.Command{customAddRedCmd, customAddMsdCmd, customEditCmd} {
		c.Flags().StringVar(&customName, "name", "", "Weapon name")
		c.Flags().StringVar(&customDescription, "description", "", "Free-text description")
		c.Flags().StringVar(&customStanding, "standing", "", "Standing distance in meters")
	}
	for _, c := range []*cobra.Command{customAddRedCmd, customEditCmd} {
		c.Flags().StringVar(&customProne, "prone", "", "Prone distance in meters")
		c.Flags().StringVar(&customProneProtected, "prone-protected", "", "Prone protected distance in meters")
	}
	for _, c := range []*cobra.Command{customAddMsdCmd, customEditCmd} {
		c.Flags().StringVar(&customRicochetFan, "ricochet-fan", "", "Ricochet fan, e.g. \"30° / 1000m\"")
	}

	customCmd.AddCommand(customLsCmd)
	customCmd.AddCommand(customAddRedCmd)
	customCmd.AddCommand(customAddMsdCmd)
	customCmd.AddCommand(customEditCmd)
	customCmd.AddCommand(customRmCmd)
}

func runCustomLs(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	customs := s.nav.SortedCustoms()
	if len(customs) == 0 {
		fmt.Println("No custom threat rings")
		return nil
	}
	for _, w := range customs {
		fmt.Println(formatWeaponRow(s.nav, w))
	}
	return nil
}

func runCustomAddRed(cmd *cobra.Command, args []string) error {
	if customName == "" || customStanding == "" || customProne == "" {
		return errors.New("add-red requires --name, --standing and --prone")
	}
	return createCustom(munitions.CustomFields{
		Name:           customName,
		Description:    customDescription,
		Standing:       customStanding,
		Prone:          customProne,
		ProneProtected: customProneProtected,
	})
}

func runCustomAddMsd(cmd *cobra.Command, args []string) error {
	if customName == "" || customStanding == "" || customRicochetFan == "" {
		return errors.New("add-msd requires --name, --standing and --ricochet-fan")
	}
	return createCustom(munitions.CustomFields{
		Name:        customName,
		Description: customDescription,
		Standing:    customStanding,
		RicochetFan: customRicochetFan,
	})
}

func createCustom(f munitions.CustomFields) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	w, err := s.nav.CreateOrEditCustom(0, f)
	if err != nil {
		return err
	}
	logger.Info("Custom threat ring created", zap.Int("id", w.ID), zap.String("name", w.Name))
	fmt.Printf("Created %s %d: %s\n", w.Style(), w.ID, munitions.DisplayName(w.Name))
	return nil
}

func runCustomEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	w := s.nav.Lookup(id)
	if w == nil {
		return fmt.Errorf("weapon %d: %w", id, munitions.ErrNotFound)
	}
	if !s.nav.IsCustom(w) {
		return fmt.Errorf("weapon %d: %w", id, munitions.ErrNotCustom)
	}

	f := munitions.CustomFields{
		Name:           w.Name,
		Description:    w.Description,
		Standing:       w.Standing,
		Prone:          w.Prone,
		ProneProtected: w.ProneProtected,
		RicochetFan:    w.RicochetFan,
	}
	flags := cmd.Flags()
	if flags.Changed("name") {
		f.Name = customName
	}
	if flags.Changed("description") {
		f.Description = customDescription
	}
	if flags.Changed("standing") {
		f.Standing = customStanding
	}
	if flags.Changed("prone") {
		f.Prone = customProne
	}
	if flags.Changed("prone-protected") {
		f.ProneProtected = customProneProtected
	}
	if flags.Changed("ricochet-fan") {
		f.RicochetFan = customRicochetFan
	}

	// Prone flags turn an MSD into a RED unless a fan is given too.
	proneChanged := flags.Changed("prone") || flags.Changed("prone-protected")
	if proneChanged && flags.Changed("ricochet-fan") && customRicochetFan != "" {
		return errors.New("--prone and --prone-protected cannot be combined with --ricochet-fan")
	}
	if proneChanged && !flags.Changed("ricochet-fan") {
		f.RicochetFan = ""
	}

	w, err = s.nav.CreateOrEditCustom(id, f)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s %d: %s\n", w.Style(), w.ID, munitions.DisplayName(w.Name))
	return nil
}

func runCustomRm(cmd *cobra.Command, args []string) error {
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
		if w := s.nav.Lookup(id); w != nil && !s.nav.IsCustom(w) {
			return fmt.Errorf("weapon %d: %w", id, munitions.ErrNotCustom)
		}
	}

	removed := s.nav.RemoveCustom(ids...)
	fmt.Printf("Removed %d custom threat rings\n", len(removed))
	if len(removed) < len(ids) {
		gone := make(map[int]bool, len(removed))
		for _, id := range removed {
			gone[id] = true
		}
		for _, id := range ids {
			if !gone[id] {
				fmt.Printf("  %d: not found\n", id)
			}
		}
	}
	return nil
}
