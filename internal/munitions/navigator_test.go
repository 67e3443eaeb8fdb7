package munitions

import (
	"encoding/xml"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []RingEvent
}

func (r *recordingSink) ToggleRing(ev RingEvent) error {
	r.events = append(r.events, ev)
	return nil
}

type overlaySet map[string]bool

func (o overlaySet) HasOverlay(uid string) bool { return o[uid] }

const testCatalog = `<?xml version="1.0"?>
<munitions>
  <Favorites/>
  <Current_Flights/>
  <Unguided_Mortar>
    <weapon ID="1" active="false" description="" name="60mm Mortar" standing="175" prone="100" proneprotected="" ricochetfan=""/>
  </Unguided_Mortar>
  <category name="Cannon">
    <weapon ID="10" active="false" description="M119" name="105mm Howitzer" standing="295" prone="175" proneprotected="" ricochetfan=""/>
    <weapon ID="11" active="false" description="" name="155mm Howitzer" standing="420" prone="245" proneprotected="" ricochetfan=""/>
    <weapon ID="12" active="false" description="" name="155mm DPICM" standing="540" prone="320" proneprotected="" ricochetfan=""/>
    <category name="Naval">
      <weapon ID="20" active="false" description="" name="5 inch Naval Gun" standing="460" prone="270" proneprotected="" ricochetfan=""/>
    </category>
  </category>
  <category name="Empty"/>
</munitions>`

const testFlights = `<OSRMunitions>
  <category name="Flight_HAWG11">
    <weapon ID="900" active="false" description="" name="GBU-12" standing="225" prone="150" proneprotected="125" ricochetfan=""/>
  </category>
  <note/>
</OSRMunitions>`

func newTestNavigator(t *testing.T, mutate func(*Options)) (*Navigator, *recordingSink, string) {
	t.Helper()
	dir := t.TempDir()
	sink := &recordingSink{}
	opts := Options{
		Static:  []byte(testCatalog),
		DataDir: dir,
		Target:  "TGT-1",
		Rings:   sink,
	}
	if mutate != nil {
		mutate(&opts)
	}
	return NewNavigator(opts), sink, dir
}

func names(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func redFields(name string) CustomFields {
	return CustomFields{Name: name, Standing: "500", Prone: "100"}
}

func TestNavigator_CreateCustom_ConcreteScenario(t *testing.T) {
	nav, _, dir := newTestNavigator(t, func(o *Options) { o.Static = nil })
	require.Equal(t, ReservedStaticIDs, MaxID(nav.Root()), "bundled table ends at the reserved id")

	w, err := nav.CreateOrEditCustom(0, CustomFields{
		Name:     "Test RED",
		Standing: "500",
		Prone:    "100",
	})
	require.NoError(t, err)
	assert.Equal(t, 220, w.ID)
	assert.False(t, w.Active)
	assert.Equal(t, "100", w.Prone)
	assert.Equal(t, "", w.RicochetFan)

	data, err := os.ReadFile(filepath.Join(dir, CustomsFile))
	require.NoError(t, err)

	var doc struct {
		XMLName xml.Name
		Weapons []struct {
			ID          string `xml:"ID,attr"`
			Active      string `xml:"active,attr"`
			Name        string `xml:"name,attr"`
			Prone       string `xml:"prone,attr"`
			RicochetFan string `xml:"ricochetfan,attr"`
		} `xml:"weapon"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc))
	assert.Equal(t, CustomsElement, doc.XMLName.Local)
	require.Len(t, doc.Weapons, 1)
	assert.Equal(t, "220", doc.Weapons[0].ID)
	assert.Equal(t, "false", doc.Weapons[0].Active)
	assert.Equal(t, "Test RED", doc.Weapons[0].Name)
	assert.Equal(t, "100", doc.Weapons[0].Prone)
	assert.Equal(t, "", doc.Weapons[0].RicochetFan)
	assert.Contains(t, string(data), `ricochetfan=""`)
}

func TestNavigator_CustomRoundTrip(t *testing.T) {
	nav, _, dir := newTestNavigator(t, nil)

	first, err := nav.CreateOrEditCustom(0, redFields("A"))
	require.NoError(t, err)
	second, err := nav.CreateOrEditCustom(-1, CustomFields{
		Name:        "B",
		Description: "msd",
		Standing:    "800",
		Prone:       "ignored",
		RicochetFan: "30° / 600m",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID+1, second.ID)
	assert.Equal(t, "", second.Prone, "MSD leaves prone empty")
	assert.Equal(t, StyleMSD, second.Style())

	reloaded := NewNavigator(Options{Static: []byte(testCatalog), DataDir: dir})
	got := reloaded.Customs().Children
	require.Len(t, got, 2)

	type row struct {
		ID                                int
		Name, Standing, Prone, RicochetFan string
	}
	var rows []row
	for _, w := range got {
		rows = append(rows, row{w.ID, w.Name, w.Standing, w.Prone, w.RicochetFan})
	}
	want := []row{
		{first.ID, "A", "500", "100", ""},
		{second.ID, "B", "800", "", "30° / 600m"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("reloaded customs mismatch (-want +got):\n%s", diff)
	}
}

func TestNavigator_IDsStayUnique(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)

	for i := 0; i < 5; i++ {
		_, err := nav.CreateOrEditCustom(0, redFields("c"))
		require.NoError(t, err)
	}
	nav.RemoveCustom(ReservedStaticIDs + 3)
	_, err := nav.CreateOrEditCustom(0, redFields("after-remove"))
	require.NoError(t, err)

	seen := map[int]bool{}
	for _, scope := range []*Node{nav.Root(), nav.Customs()} {
		for _, w := range Weapons(scope) {
			assert.False(t, seen[w.ID], "duplicate id %d", w.ID)
			seen[w.ID] = true
		}
	}
	assert.True(t, seen[ReservedStaticIDs+1], "first custom starts above the reserved range")
}

func TestNavigator_EditCustom(t *testing.T) {
	nav, _, dir := newTestNavigator(t, nil)
	w, err := nav.CreateOrEditCustom(0, redFields("Before"))
	require.NoError(t, err)

	edited, err := nav.CreateOrEditCustom(w.ID, CustomFields{Name: "After", Standing: "600", Prone: "120", ProneProtected: "90"})
	require.NoError(t, err)
	assert.Same(t, w, edited)
	assert.Equal(t, 90, edited.InnerRange())
	assert.Equal(t, 600, edited.OuterRange())

	data, err := os.ReadFile(filepath.Join(dir, CustomsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `name="After"`)
	assert.NotContains(t, string(data), `name="Before"`)
}

func TestNavigator_EditKeepsOneRangeStyle(t *testing.T) {
	nav, _, dir := newTestNavigator(t, nil)
	w, err := nav.CreateOrEditCustom(0, CustomFields{Name: "Range 7", Standing: "1100", RicochetFan: "30° / 1000m"})
	require.NoError(t, err)

	_, err = nav.CreateOrEditCustom(w.ID, CustomFields{Name: "Range 7", Standing: "1100", Prone: "50", RicochetFan: "30° / 1000m"})
	require.NoError(t, err)
	assert.Equal(t, StyleMSD, w.Style())
	assert.Empty(t, w.Prone, "a fan clears the prone pair")

	_, err = nav.CreateOrEditCustom(w.ID, CustomFields{Name: "Range 7", Standing: "1100", Prone: "50", ProneProtected: "40"})
	require.NoError(t, err)
	assert.Equal(t, StyleRED, w.Style())
	assert.Empty(t, w.RicochetFan)
	assert.Equal(t, "50", w.Prone)

	data, err := os.ReadFile(filepath.Join(dir, CustomsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `ricochetfan=""`)
}

func TestNavigator_EditMissingCustom(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)

	w, err := nav.CreateOrEditCustom(4242, redFields("ghost"))
	assert.Nil(t, w)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Empty(t, nav.Customs().Children, "a failed edit creates nothing")
}

func TestNavigator_FavoriteIdempotence(t *testing.T) {
	nav, _, dir := newTestNavigator(t, nil)
	path := filepath.Join(dir, FavoritesFile)

	require.True(t, nav.AddFavorite(10))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.True(t, nav.AddFavorite(10))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []int{10}, nav.Favorites())
	assert.Equal(t, first, second)
	assert.Equal(t, "10", string(second))
}

func TestNavigator_FavoritesFileDuplicatesCollapse(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FavoritesFile), []byte("12\n45\n12"), 0644))

	nav := NewNavigator(Options{Static: []byte(testCatalog), DataDir: dir})
	assert.Equal(t, []int{12, 45}, nav.Favorites())
}

func TestNavigator_MalformedFavoritesPartialLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FavoritesFile), []byte("10\nbogus\n\n11\n"), 0644))

	nav := NewNavigator(Options{Static: []byte(testCatalog), DataDir: dir})
	assert.Equal(t, []int{10, 11}, nav.Favorites())
}

func TestNavigator_CorruptCustomsDegrade(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, CustomsFile), []byte("<Custom_Threat_Rings><weapon"), 0644))

	nav := NewNavigator(Options{Static: []byte(testCatalog), DataDir: dir})
	assert.Empty(t, nav.Customs().Children)
	assert.True(t, nav.AtRoot())
}

func TestNavigator_MissingCustomsCreatesDocument(t *testing.T) {
	_, _, dir := newTestNavigator(t, nil)

	data, err := os.ReadFile(filepath.Join(dir, CustomsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), "<"+CustomsElement+">")
}

func TestNavigator_ActiveAggregation(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)

	require.True(t, nav.SetActive(10, true))
	require.True(t, nav.SetActive(11, true))

	var cannon, empty *Node
	for _, c := range nav.Root().Children {
		switch c.Name {
		case "Cannon":
			cannon = c
		case "Empty":
			empty = c
		}
	}
	require.NotNil(t, cannon)
	require.NotNil(t, empty)

	assert.Equal(t, 2, nav.ActiveCountUnder(cannon))
	assert.Equal(t, 0, nav.ActiveCountUnder(empty))
	assert.Equal(t, 2, nav.ActiveCountUnder(nav.Root()))

	require.True(t, nav.SetActive(20, true))
	assert.Equal(t, 3, nav.ActiveCountUnder(cannon), "nested categories aggregate")
}

func TestNavigator_DescendAscendInverse(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)

	require.Equal(t, RootElement, nav.CurrentName())
	require.Equal(t, []string{FlightsElement, MortarElement, "Cannon", "Empty"}, names(nav.Entries()))

	depth := 0
	require.True(t, nav.Descend(2))
	depth++
	assert.Equal(t, "Cannon", nav.CurrentName())

	entries := nav.Entries()
	require.Equal(t, []string{"105mm Howitzer", "155mm Howitzer", "155mm DPICM", "Naval"}, names(entries))
	assert.False(t, nav.Descend(0), "weapons never descend")
	require.True(t, nav.Descend(3))
	depth++
	assert.Equal(t, "Naval", nav.CurrentName())

	for i := 0; i < depth; i++ {
		nav.Ascend()
	}
	assert.True(t, nav.AtRoot())
	assert.Equal(t, RootElement, nav.CurrentName())

	nav.Ascend()
	assert.True(t, nav.AtRoot(), "ascend at root is a no-op")
}

func TestNavigator_DescendOutOfRange(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	assert.False(t, nav.Descend(-1))
	assert.False(t, nav.Descend(99))
	assert.True(t, nav.AtRoot())
}

func TestNavigator_AscendToRoot(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	require.True(t, nav.Descend(2))
	require.True(t, nav.Descend(3))

	nav.AscendToRoot()
	assert.True(t, nav.AtRoot())
}

func TestNavigator_NinelineHidesMortar(t *testing.T) {
	nav, _, _ := newTestNavigator(t, func(o *Options) { o.FromLine = "nineline" })
	assert.NotContains(t, names(nav.Entries()), MortarElement)

	five, _, _ := newTestNavigator(t, func(o *Options) { o.FromLine = "fiveline" })
	assert.Contains(t, names(five.Entries()), MortarElement)
}

func TestNavigator_JumpViews(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	_, err := nav.CreateOrEditCustom(0, redFields("Mine"))
	require.NoError(t, err)
	nav.AddFavorite(11)
	nav.AddFavorite(ReservedStaticIDs + 1)

	nav.JumpToFavorites()
	assert.Equal(t, FavoritesElement, nav.CurrentName())
	assert.Equal(t, "Favorites", nav.Title())
	assert.Equal(t, []string{"155mm Howitzer", "Mine"}, names(nav.Entries()))
	assert.False(t, nav.Descend(0))
	nav.Ascend()
	assert.True(t, nav.AtRoot())

	nav.JumpToCustoms()
	assert.Equal(t, CustomsElement, nav.CurrentName())
	assert.Equal(t, []string{"Mine"}, names(nav.Entries()))
	nav.Ascend()
	assert.True(t, nav.AtRoot())
}

func TestNavigator_Flights(t *testing.T) {
	nav, _, _ := newTestNavigator(t, func(o *Options) {
		o.Flights = []byte(testFlights)
		o.Overlays = overlaySet{"TGT-1.GBU-12[900]": true}
	})

	require.Equal(t, FlightsElement, nav.Entries()[0].Name)
	assert.Equal(t, 1, nav.ActiveCountUnder(nav.Entries()[0]), "flights count from the installed document")

	require.True(t, nav.Descend(0))
	assert.Equal(t, "Current Flights", nav.Title())
	require.Equal(t, []string{"Flight_HAWG11"}, names(nav.Entries()))

	require.True(t, nav.Descend(0))
	assert.True(t, nav.InFlights())
	assert.False(t, nav.AddFavorite(900), "flight weapons cannot be favorited")
	assert.Empty(t, nav.Favorites())

	name, ok := nav.CategoryNameFor(900)
	assert.True(t, ok)
	assert.Equal(t, "Flight_HAWG11", name)

	nav.Ascend()
	assert.Equal(t, FlightsElement, nav.CurrentName())
	nav.Ascend()
	assert.True(t, nav.AtRoot())
}

func TestNavigator_FlightWeaponsNeverFavorited(t *testing.T) {
	nav, _, dir := newTestNavigator(t, func(o *Options) { o.Flights = []byte(testFlights) })
	require.True(t, nav.AtRoot())

	assert.False(t, nav.AddFavorite(900))
	nav.MarkFavoriteForRemoval(900, false)
	assert.Empty(t, nav.Favorites())

	_, err := os.Stat(filepath.Join(dir, FavoritesFile))
	assert.True(t, os.IsNotExist(err), "nothing was written")
}

func TestNavigator_SetFlightsWithoutView(t *testing.T) {
	nav, _, _ := newTestNavigator(t, func(o *Options) {
		o.Static = []byte(`<munitions><category name="X"/></munitions>`)
	})
	require.NoError(t, nav.SetFlights([]byte(testFlights)))
	assert.Contains(t, names(nav.Entries()), FlightsElement)

	assert.Error(t, nav.SetFlights([]byte("<OSRMunitions>")))
}

func TestNavigator_OverlaySeeding(t *testing.T) {
	nav, _, _ := newTestNavigator(t, func(o *Options) {
		o.FromLine = "nineline"
		o.Overlays = overlaySet{
			"TGT-1.105mm Howitzer[10].nineline": true,
			"TGT-1.155mm Howitzer[11]":          true, // wrong from-line
		}
	})

	assert.True(t, FindByID(nav.Root(), 10).Active)
	assert.False(t, FindByID(nav.Root(), 11).Active)
}

func TestNavigator_ActivateEmitsRingEvent(t *testing.T) {
	nav, sink, _ := newTestNavigator(t, func(o *Options) { o.FromLine = "fiveline" })
	require.True(t, nav.Descend(2))

	require.True(t, nav.Activate(10))
	require.Len(t, sink.events, 1)
	want := RingEvent{
		Name:        "105mm Howitzer[10]",
		Category:    "Cannon",
		Target:      "TGT-1",
		FromLine:    "fiveline",
		InnerRange:  175,
		OuterRange:  295,
		Description: "M119",
	}
	if diff := cmp.Diff(want, sink.events[0]); diff != "" {
		t.Errorf("activate event mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "TGT-1.105mm Howitzer[10].fiveline", sink.events[0].UID())

	require.True(t, nav.Deactivate(10))
	require.Len(t, sink.events, 2)
	assert.True(t, sink.events[1].Remove)
	assert.False(t, FindByID(nav.Root(), 10).Active)

	assert.False(t, nav.Activate(777), "unknown ids are ignored")
	assert.Len(t, sink.events, 2)
}

func TestNavigator_EmptyTargetGetsUUID(t *testing.T) {
	nav, sink, _ := newTestNavigator(t, func(o *Options) { o.Target = "" })
	require.True(t, nav.Activate(10))
	require.Len(t, sink.events, 1)
	assert.Len(t, sink.events[0].Target, 36)
}

func TestNavigator_SetActivePersistsCustomsOnly(t *testing.T) {
	nav, _, dir := newTestNavigator(t, nil)
	w, err := nav.CreateOrEditCustom(0, redFields("C"))
	require.NoError(t, err)

	require.True(t, nav.SetActive(w.ID, true))
	data, err := os.ReadFile(filepath.Join(dir, CustomsFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `active="true"`)

	require.True(t, nav.SetActive(10, true))
	assert.False(t, nav.SetActive(4040, true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".xml") && e.Name() != CustomsFile,
			"static catalog never written: %s", e.Name())
	}
}

func TestNavigator_CascadeDelete(t *testing.T) {
	nav, sink, dir := newTestNavigator(t, nil)
	w, err := nav.CreateOrEditCustom(0, redFields("Doomed"))
	require.NoError(t, err)
	keep, err := nav.CreateOrEditCustom(0, redFields("Keep"))
	require.NoError(t, err)

	require.True(t, nav.AddFavorite(w.ID))
	nav.JumpToCustoms()
	require.True(t, nav.Activate(w.ID))
	sink.events = nil

	nav.SetMode(ModeRemoveCustoms)
	nav.StageCustomRemoval(w.ID, true)
	removed := nav.RemoveCustoms()

	assert.Equal(t, []int{w.ID}, removed)
	assert.Nil(t, FindByID(nav.Customs(), w.ID))
	assert.NotNil(t, FindByID(nav.Customs(), keep.ID))
	assert.False(t, nav.IsFavorite(w.ID))
	require.Len(t, sink.events, 1, "exactly one deactivation")
	assert.True(t, sink.events[0].Remove)
	assert.Equal(t, CustomsElement, sink.events[0].Category)
	assert.Empty(t, nav.StagedCustoms())

	reloaded := NewNavigator(Options{Static: []byte(testCatalog), DataDir: dir})
	assert.Nil(t, FindByID(reloaded.Customs(), w.ID))
	assert.NotContains(t, reloaded.Favorites(), w.ID)
}

type purgingSink struct {
	recordingSink
	purged []string
}

func (p *purgingSink) PurgeRings(weapon, category string) error {
	p.purged = append(p.purged, category+"/"+weapon)
	return nil
}

func TestNavigator_RemoveCustomPurgesEveryTarget(t *testing.T) {
	sink := &purgingSink{}
	nav, _, _ := newTestNavigator(t, func(o *Options) {
		o.Target = ""
		o.Rings = sink
	})
	w, err := nav.CreateOrEditCustom(0, redFields("X"))
	require.NoError(t, err)

	nav.RemoveCustom(w.ID)
	assert.Equal(t, []string{CustomsElement + "/" + w.Key()}, sink.purged)
	assert.Empty(t, sink.events, "an inactive custom draws no remove event")
}

func TestNavigator_RemoveCustomsEmptyStage(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	assert.Nil(t, nav.RemoveCustoms())
}

func TestNavigator_StageCustomRemoval(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	nav.SetMode(ModeRemoveCustoms)
	nav.StageCustomRemoval(5, true)
	nav.StageCustomRemoval(5, true)
	nav.StageCustomRemoval(6, true)
	nav.StageCustomRemoval(5, false)
	assert.Equal(t, []int{6}, nav.StagedCustoms())

	nav.SetMode(ModeDefault)
	assert.Empty(t, nav.StagedCustoms(), "leaving the mode drops the staging set")
}

func TestNavigator_RemoveFavoritesMode(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	nav.AddFavorite(10)
	nav.AddFavorite(11)

	nav.SetMode(ModeRemoveFavorites)
	nav.MarkFavoriteForRemoval(10, true)
	assert.True(t, nav.IsMarkedForRemoval(10))
	assert.False(t, nav.IsFavorite(10))

	nav.MarkFavoriteForRemoval(10, false)
	assert.False(t, nav.IsMarkedForRemoval(10))
	assert.True(t, nav.IsFavorite(10))

	nav.MarkFavoriteForRemoval(11, true)
	nav.SetMode(ModeDefault)
	nav.SetMode(ModeRemoveFavorites)
	assert.False(t, nav.IsMarkedForRemoval(11), "re-entering the mode resets the set")
	assert.Equal(t, ModeRemoveFavorites, nav.Mode())
}

func TestNavigator_DeactivateAll(t *testing.T) {
	nav, _, dir := newTestNavigator(t, func(o *Options) { o.Flights = []byte(testFlights) })
	w, err := nav.CreateOrEditCustom(0, redFields("C"))
	require.NoError(t, err)

	nav.SetActive(10, true)
	nav.SetActive(20, true)
	nav.SetActive(w.ID, true)
	FindByID(nav.Flights(), 900).Active = true

	assert.Equal(t, 4, nav.DeactivateAll())
	assert.Empty(t, nav.ActiveWeapons())
	assert.Equal(t, 0, nav.ActiveCountUnder(nav.Root()))

	data, err := os.ReadFile(filepath.Join(dir, CustomsFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), `active="true"`)
}

func TestNavigator_CategoryNameFor(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	c, err := nav.CreateOrEditCustom(0, redFields("Mine"))
	require.NoError(t, err)
	nav.AddFavorite(20)
	nav.AddFavorite(c.ID)
	nav.AddFavorite(5555)

	nav.JumpToFavorites()

	name, ok := nav.CategoryNameFor(20)
	assert.True(t, ok)
	assert.Equal(t, "Naval", name, "favorites resolve to the owning category")

	name, ok = nav.CategoryNameFor(c.ID)
	assert.True(t, ok)
	assert.Equal(t, CustomsElement, name)

	name, ok = nav.CategoryNameFor(5555)
	assert.False(t, ok, "orphaned favorite")
	assert.Equal(t, "", name)

	nav.AscendToRoot()
	name, ok = nav.CategoryNameFor(1)
	assert.True(t, ok)
	assert.Equal(t, MortarElement, name)
}

func TestNavigator_OrphanedFavorites(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	c, err := nav.CreateOrEditCustom(0, redFields("Gone"))
	require.NoError(t, err)
	nav.AddFavorite(10)
	nav.AddFavorite(c.ID)
	nav.AddFavorite(31337)

	nav.JumpToFavorites()
	assert.Equal(t, []string{"105mm Howitzer", "Gone"}, names(nav.Entries()), "orphans are skipped")

	pruned := nav.PruneFavorites()
	assert.Equal(t, []int{31337}, pruned)
	assert.Equal(t, []int{10, c.ID}, nav.Favorites())
	assert.Nil(t, nav.PruneFavorites())
}

func TestNavigator_Reload(t *testing.T) {
	nav, _, dir := newTestNavigator(t, nil)
	nav.JumpToCustoms()

	other := NewNavigator(Options{Static: []byte(testCatalog), DataDir: dir})
	_, err := other.CreateOrEditCustom(0, redFields("FromElsewhere"))
	require.NoError(t, err)
	other.AddFavorite(12)

	nav.Reload()
	assert.Equal(t, []string{"FromElsewhere"}, names(nav.Entries()))
	assert.Equal(t, []int{12}, nav.Favorites())
	assert.Equal(t, CustomsElement, nav.CurrentName())
}

func TestNavigator_CorruptStaticCatalog(t *testing.T) {
	nav, _, _ := newTestNavigator(t, func(o *Options) { o.Static = []byte("not xml <") })
	assert.True(t, nav.AtRoot())
	assert.Empty(t, nav.Entries())
	nav.JumpToFavorites()
	assert.Equal(t, FavoritesElement, nav.CurrentName())
}

func TestNavigator_Search(t *testing.T) {
	nav, _, _ := newTestNavigator(t, nil)
	_, err := nav.CreateOrEditCustom(0, redFields("Howitzer Custom"))
	require.NoError(t, err)

	hits := nav.Search("howitzer", 0)
	require.Len(t, hits, 3)
	assert.Equal(t, "Howitzer Custom", hits[0].Weapon.Name, "prefix beats contains")

	hits = nav.Search("hoitzer", 1)
	require.Len(t, hits, 1)
	assert.Equal(t, "lev", hits[0].Source)
}

func TestNavigator_PersistFailureKeepsMemory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	nav, _, _ := newTestNavigator(t, func(o *Options) { o.DataDir = filepath.Join(blocker, "data") })

	w, err := nav.CreateOrEditCustom(0, redFields("Unsaved"))
	require.NoError(t, err, "write failures are logged, not returned")
	require.True(t, nav.AddFavorite(w.ID))
	require.True(t, nav.Activate(w.ID))

	assert.Same(t, w, nav.Lookup(w.ID))
	assert.True(t, w.Active)
	assert.Equal(t, []int{w.ID}, nav.Favorites())
	assert.Equal(t, []string{"Unsaved"}, names(nav.Customs().Children))
}
