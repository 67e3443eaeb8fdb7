package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dangerclose/internal/config"
	"dangerclose/internal/munitions"
	"dangerclose/internal/rings"
	"dangerclose/internal/watch"
)

func run(t *testing.T, fn func(*cobra.Command, []string) error, args ...string) string {
	t.Helper()
	var err error
	out := captureOutput(t, func() {
		err = fn(&cobra.Command{}, args)
	})
	require.NoError(t, err, out)
	return out
}

func TestLs(t *testing.T) {
	setupTest(t)

	out := run(t, runLs)
	assert.Contains(t, out, munitions.RootTitle)
	assert.Contains(t, out, "Air Delivered Bombs/")
	assert.NotContains(t, out, "Favorites/", "views are not listed at the root")

	out = run(t, runLs, "Air_Delivered_Bombs")
	assert.Contains(t, out, "179  GBU-12")
	assert.Contains(t, out, "RED 225m standing, 150m prone, 125m protected")

	out = run(t, runLs, "small arms msd")
	assert.Contains(t, out, "MSD 625m fan 30° / 600m")
}

func TestLs_UnknownCategory(t *testing.T) {
	setupTest(t)

	err := runLs(&cobra.Command{}, []string{"Artillery"})
	assert.True(t, errors.Is(err, munitions.ErrNotFound), "got %v", err)
}

func TestLs_NinelineHidesMortars(t *testing.T) {
	setupTest(t)
	fromLine = "nineline"

	out := run(t, runLs)
	assert.NotContains(t, out, "Unguided Mortar")
}

func TestInfo(t *testing.T) {
	setupTest(t)

	out := run(t, runInfo, "179")
	assert.Contains(t, out, "GBU-12")
	assert.Contains(t, out, "Air Delivered Bombs")
	assert.Contains(t, out, "500 lb laser guided")
	assert.Contains(t, out, "inactive")

	err := runInfo(&cobra.Command{}, []string{"-3"})
	assert.True(t, errors.Is(err, munitions.ErrInvalidID))

	err = runInfo(&cobra.Command{}, []string{"4242"})
	assert.True(t, errors.Is(err, munitions.ErrNotFound))
}

func TestWeaponCard(t *testing.T) {
	setupTest(t)
	s, err := openSession()
	require.NoError(t, err)
	defer s.Close()

	w := s.nav.Lookup(199)
	require.NotNil(t, w)
	card := weaponCard(s.nav, w, "Small_Arms_MSD", "TGT-1")
	assert.Contains(t, card, "| Ricochet fan | 30° / 600m |")
	assert.NotContains(t, card, "| Prone |")

	s.nav.Activate(199)
	card = weaponCard(s.nav, w, "Small_Arms_MSD", "TGT-1")
	assert.Contains(t, card, "drawn (0m inner, 625m outer) around TGT-1")
}

func TestFind(t *testing.T) {
	setupTest(t)

	out := run(t, runFind, "gbu")
	assert.Contains(t, out, "GBU-12")
	assert.Contains(t, out, "GBU-38")

	out = run(t, runFind, "zzzzzz")
	assert.Contains(t, out, "No weapons match")
}

func TestFavorites(t *testing.T) {
	dir := setupTest(t)

	out := run(t, runFavLs)
	assert.Contains(t, out, "No favorites")

	out = run(t, runFavAdd, "179", "34")
	assert.Contains(t, out, "Added GBU-12 to favorites")
	assert.Contains(t, out, "Added 60mm Mortar to favorites")

	out = run(t, runFavAdd, "179")
	assert.Contains(t, out, "already a favorite")

	out = run(t, runFavLs)
	assert.Less(t, strings.Index(out, "GBU-12"), strings.Index(out, "60mm Mortar"), "insertion order")

	out = run(t, runFavRm, "179", "164")
	assert.Contains(t, out, "Removed 179 from favorites")
	assert.Contains(t, out, "164 is not a favorite")

	data, err := os.ReadFile(filepath.Join(dir, munitions.FavoritesFile))
	require.NoError(t, err)
	assert.Equal(t, "34", string(data))

	err = runFavAdd(&cobra.Command{}, []string{"4242"})
	assert.True(t, errors.Is(err, munitions.ErrNotFound))
}

func TestFavorites_Prune(t *testing.T) {
	dir := setupTest(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, munitions.FavoritesFile), []byte("179\n9999"), 0644))

	out := run(t, runFavLs)
	assert.Contains(t, out, "9999  (missing")

	out = run(t, runFavPrune)
	assert.Contains(t, out, "Pruned 1 favorites")

	data, err := os.ReadFile(filepath.Join(dir, munitions.FavoritesFile))
	require.NoError(t, err)
	assert.Equal(t, "179", string(data))
}

func TestCustoms_Lifecycle(t *testing.T) {
	dir := setupTest(t)

	assert.Error(t, runCustomAddRed(&cobra.Command{}, nil), "name, standing and prone are required")

	customName, customStanding, customProne = "VBIED", "1200", "900"
	out := run(t, runCustomAddRed)
	assert.Contains(t, out, "Created RED 220: VBIED")

	customName, customStanding, customProne = "Range 7 .50 cal", "2000", ""
	customRicochetFan = "45° / 1500m"
	out = run(t, runCustomAddMsd)
	assert.Contains(t, out, "Created MSD 221")

	out = run(t, runCustomLs)
	assert.Contains(t, out, "VBIED")
	assert.Contains(t, out, "Range 7 .50 cal")

	require.NoError(t, customEditCmd.Flags().Set("standing", "1300"))
	t.Cleanup(func() { customEditCmd.Flags().Lookup("standing").Changed = false })
	out = captureOutput(t, func() {
		require.NoError(t, runCustomEdit(customEditCmd, []string{"220"}))
	})
	assert.Contains(t, out, "Updated RED 220")

	customs, err := munitions.LoadCustoms(filepath.Join(dir, munitions.CustomsFile))
	require.NoError(t, err)
	w := munitions.FindByID(customs, 220)
	require.NotNil(t, w)
	assert.Equal(t, "1300", w.Standing)
	assert.Equal(t, "900", w.Prone, "unset flags keep their values")
	assert.Equal(t, "VBIED", w.Name)

	out = run(t, runCustomRm, "220", "555")
	assert.Contains(t, out, "Removed 1 custom threat rings")
	assert.Contains(t, out, "555: not found")

	out = run(t, runCustomLs)
	assert.NotContains(t, out, "VBIED")
}

func TestCustoms_EditSwitchesStyle(t *testing.T) {
	dir := setupTest(t)

	customName, customStanding, customRicochetFan = "Range 7", "1100", "30° / 1000m"
	run(t, runCustomAddMsd)

	flags := customEditCmd.Flags()
	t.Cleanup(func() {
		for _, name := range []string{"prone", "ricochet-fan"} {
			flags.Lookup(name).Changed = false
		}
	})
	require.NoError(t, flags.Set("prone", "50"))
	require.NoError(t, flags.Set("ricochet-fan", "45° / 900m"))
	err := runCustomEdit(customEditCmd, []string{"220"})
	assert.Error(t, err, "prone and a fan together are rejected")

	flags.Lookup("ricochet-fan").Changed = false
	out := captureOutput(t, func() {
		require.NoError(t, runCustomEdit(customEditCmd, []string{"220"}))
	})
	assert.Contains(t, out, "Updated RED 220")

	customs, err := munitions.LoadCustoms(filepath.Join(dir, munitions.CustomsFile))
	require.NoError(t, err)
	w := munitions.FindByID(customs, 220)
	require.NotNil(t, w)
	assert.Equal(t, "50", w.Prone)
	assert.Empty(t, w.RicochetFan)
}

func TestCustoms_RemoveClearsRingsOnEveryTarget(t *testing.T) {
	dir := setupTest(t)

	customName, customStanding, customProne = "VBIED", "1200", "900"
	run(t, runCustomAddRed)
	captureOutput(t, func() {
		require.NoError(t, runToggle([]string{"220"}, true))
	})

	target = ""
	run(t, runCustomRm, "220")

	targets, err := openLedger(t, dir).Targets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, targets)
}

func TestFavorites_RefuseFlightWeapons(t *testing.T) {
	dir := setupTest(t)
	flightsPath = filepath.Join(dir, "flights.xml")
	require.NoError(t, os.WriteFile(flightsPath, []byte(`<OSRMunitions>
  <category name="Flight_HAWG11">
    <weapon ID="900" active="false" description="" name="GBU-54" standing="225" prone="150" proneprotected="" ricochetfan=""/>
  </category>
</OSRMunitions>`), 0644))

	out := run(t, runFavAdd, "900")
	assert.Contains(t, out, "cannot be a favorite")

	out = run(t, runFavLs)
	assert.Contains(t, out, "No favorites")
}

func TestCustoms_RefuseStaticWeapons(t *testing.T) {
	setupTest(t)

	err := runCustomEdit(&cobra.Command{}, []string{"179"})
	assert.True(t, errors.Is(err, munitions.ErrNotCustom), "got %v", err)

	err = runCustomRm(&cobra.Command{}, []string{"179"})
	assert.True(t, errors.Is(err, munitions.ErrNotCustom), "got %v", err)

	err = runCustomEdit(&cobra.Command{}, []string{"4242"})
	assert.True(t, errors.Is(err, munitions.ErrNotFound), "got %v", err)
}

func openLedger(t *testing.T, dir string) *rings.Ledger {
	t.Helper()
	l, err := rings.Open(filepath.Join(dir, "rings.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestToggleRings(t *testing.T) {
	dir := setupTest(t)

	out := captureOutput(t, func() {
		require.NoError(t, runToggle([]string{"179"}, true))
	})
	assert.Contains(t, out, "Drew GBU-12 around TGT-1 (125m / 225m)")

	out = run(t, runInfo, "179")
	assert.Contains(t, out, "drawn", "a new session seeds the active flag from the ledger")

	l := openLedger(t, dir)
	assert.True(t, l.HasOverlay("TGT-1.GBU-12[179]"))

	out = captureOutput(t, func() {
		require.NoError(t, runToggle([]string{"179"}, false))
	})
	assert.Contains(t, out, "Removed GBU-12 from TGT-1")
	assert.False(t, l.HasOverlay("TGT-1.GBU-12[179]"))

	err := runToggle([]string{"4242"}, true)
	assert.True(t, errors.Is(err, munitions.ErrNotFound))
}

func TestToggleRings_RequiresTarget(t *testing.T) {
	setupTest(t)
	target = ""

	assert.ErrorIs(t, runToggle([]string{"179"}, true), errNoTarget)
	assert.ErrorIs(t, runClear(&cobra.Command{}, nil), errNoTarget)
	assert.ErrorIs(t, runRingsVisible(false), errNoTarget)
}

func TestClear(t *testing.T) {
	dir := setupTest(t)

	captureOutput(t, func() {
		require.NoError(t, runToggle([]string{"179", "34"}, true))
	})

	out := run(t, runClear)
	assert.Contains(t, out, "Removed 2 rings from TGT-1, deactivated 2 weapons")

	rs, err := openLedger(t, dir).List(context.Background(), "TGT-1")
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestRingsCommands(t *testing.T) {
	setupTest(t)

	out := run(t, runRingsLs)
	assert.Contains(t, out, "No rings drawn")

	for _, tgt := range []string{"ALPHA", "BRAVO"} {
		target = tgt
		captureOutput(t, func() {
			require.NoError(t, runToggle([]string{"179"}, true))
		})
	}

	out = run(t, runRingsLs)
	assert.Contains(t, out, "ALPHA")
	assert.Contains(t, out, "BRAVO")
	assert.Contains(t, out, "GBU-12[179]")

	target = "ALPHA"
	out = captureOutput(t, func() {
		require.NoError(t, runRingsVisible(false))
	})
	assert.Contains(t, out, "Hid 1 rings around ALPHA")

	out = run(t, runRingsLs, "ALPHA")
	assert.Contains(t, out, "(hidden)")
	assert.NotContains(t, out, "BRAVO")

	out = run(t, runRingsPurge, "GBU-12[179]", "Air_Delivered_Bombs")
	assert.Contains(t, out, "Removed GBU-12[179] from 2 targets")

	out = run(t, runRingsLs)
	assert.Contains(t, out, "No rings drawn")
}

func TestWatchChanges(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Watch.Debounce = "20ms"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan watch.Change, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- watchChanges(ctx, cfg, func(c watch.Change) {
			select {
			case got <- c:
			default:
			}
		})
	}()

	var change watch.Change
	require.Eventually(t, func() bool {
		_ = os.WriteFile(cfg.FavoritesPath(), []byte("179"), 0644)
		select {
		case change = <-got:
			return true
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, munitions.FavoritesFile, filepath.Base(change.Path))

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watchChanges did not return after cancel")
	}
}
