package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dangerclose/internal/munitions"
)

// =============================================================================
// CATALOG COMMANDS
// =============================================================================

var lsCmd = &cobra.Command{
	Use:   "ls [category...]",
	Short: "List the rows of a catalog level",
	Long: `Lists the categories and weapons at a catalog level. Each argument descends
one level from the root by category name. "favorites", "customs" and
"flights" jump to those views.

Examples:
  dangerclose ls
  dangerclose ls Air_Delivered_Bombs
  dangerclose ls favorites`,
	RunE: runLs,
}

var infoCmd = &cobra.Command{
	Use:   "info <id>",
	Short: "Show the info card of a weapon",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var findCmd = &cobra.Command{
	Use:   "find <query>",
	Short: "Fuzzy search weapons by name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFind,
}

var findLimit int

func init() {
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "Maximum results")
}

func runLs(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := walkPath(s.nav, args); err != nil {
		return err
	}
	printEntries(s.nav)
	return nil
}

// walkPath descends the navigator along category names from the root.
func walkPath(nav *munitions.Navigator, path []string) error {
	nav.AscendToRoot()
	for _, seg := range path {
		switch strings.ToLower(seg) {
		case "favorites", "favs", strings.ToLower(munitions.FavoritesElement):
			nav.JumpToFavorites()
			continue
		case "customs", "custom", strings.ToLower(munitions.CustomsElement):
			nav.JumpToCustoms()
			continue
		case "flights", strings.ToLower(munitions.FlightsElement):
			seg = munitions.FlightsElement
		}

		found := false
		for i, e := range nav.Entries() {
			if e.IsWeapon() {
				continue
			}
			if strings.EqualFold(e.Name, seg) || strings.EqualFold(munitions.TitleOf(e), seg) {
				found = nav.Descend(i)
				break
			}
		}
		if !found {
			return fmt.Errorf("no category %q under %s: %w", seg, nav.Title(), munitions.ErrNotFound)
		}
	}
	return nil
}

func printEntries(nav *munitions.Navigator) {
	fmt.Printf("%s\n", nav.Title())
	entries := nav.Entries()
	if len(entries) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, e := range entries {
		if !e.IsWeapon() {
			fmt.Printf("  %-40s %d active\n", munitions.TitleOf(e)+"/", nav.ActiveCountUnder(e))
			continue
		}
		fmt.Println(formatWeaponRow(nav, e))
	}
}

func formatWeaponRow(nav *munitions.Navigator, w *munitions.Node) string {
	mark := " "
	if w.Active {
		mark = "*"
	}
	fav := " "
	if nav.IsFavorite(w.ID) {
		fav = "F"
	}
	return fmt.Sprintf("  %s%s %4d  %-36s %s", mark, fav, w.ID, munitions.DisplayName(w.Name), weaponRanges(w))
}

func weaponRanges(w *munitions.Node) string {
	if w.Style() == munitions.StyleMSD {
		return fmt.Sprintf("MSD %sm fan %s", w.Standing, w.RicochetFan)
	}
	out := fmt.Sprintf("RED %sm standing, %sm prone", w.Standing, w.Prone)
	if w.IsProneProtected() {
		out += fmt.Sprintf(", %sm protected", w.ProneProtected)
	}
	return out
}

// parseID parses a weapon id argument.
func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q: %w", arg, munitions.ErrInvalidID)
	}
	return id, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
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
	category, _ := s.nav.CategoryNameFor(id)
	fmt.Print(renderMarkdown(weaponCard(s.nav, w, category, s.cfg.Session.Target)))
	return nil
}

// weaponCard is the markdown info card of a weapon.
func weaponCard(nav *munitions.Navigator, w *munitions.Node, category, target string) string {
	var sb strings.Builder
	title, sub := munitions.SplitDisplayName(w.Name)
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if sub != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", sub)
	}
	fmt.Fprintf(&sb, "**%s** | id %d | %s\n\n", munitions.DisplayName(category), w.ID, w.Style())

	sb.WriteString("| Posture | Distance |\n|---|---|\n")
	fmt.Fprintf(&sb, "| Standing | %s m |\n", w.Standing)
	if w.Style() == munitions.StyleMSD {
		fmt.Fprintf(&sb, "| Ricochet fan | %s |\n", w.RicochetFan)
	} else {
		fmt.Fprintf(&sb, "| Prone | %s m |\n", w.Prone)
		if w.IsProneProtected() {
			fmt.Fprintf(&sb, "| Prone protected | %s m |\n", w.ProneProtected)
		}
	}
	sb.WriteString("\n")

	if w.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", w.Description)
	}

	ring := "inactive"
	if w.Active {
		ring = fmt.Sprintf("drawn (%dm inner, %dm outer)", w.InnerRange(), w.OuterRange())
		if target != "" {
			ring += " around " + target
		}
	}
	fmt.Fprintf(&sb, "- Ring: %s\n", ring)
	if nav.IsFavorite(w.ID) {
		sb.WriteString("- Favorite\n")
	}
	if nav.IsCustom(w) {
		sb.WriteString("- Custom threat ring\n")
	}
	return sb.String()
}

// renderMarkdown renders md for the terminal, falling back to the raw text.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		logger.Debug("Markdown renderer unavailable", zap.Error(err))
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		logger.Debug("Markdown render failed", zap.Error(err))
		return md
	}
	return out
}

func runFind(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	query := strings.Join(args, " ")
	matches := s.nav.Search(query, findLimit)
	if len(matches) == 0 {
		fmt.Printf("No weapons match %q\n", query)
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%s  %.2f  %-20s\n", formatWeaponRow(s.nav, m.Weapon), m.Score, munitions.DisplayName(m.Category))
	}
	return nil
}
