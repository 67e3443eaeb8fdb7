package munitions

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"dangerclose/internal/logging"
)

// Mode is the selection mode of the browser rows.
type Mode int

const (
	ModeDefault Mode = iota
	ModeAddFavorites
	ModeRemoveFavorites
	ModeRemoveCustoms
)

func (m Mode) String() string {
	switch m {
	case ModeAddFavorites:
		return "add-favorites"
	case ModeRemoveFavorites:
		return "remove-favorites"
	case ModeRemoveCustoms:
		return "remove-customs"
	default:
		return "default"
	}
}

// Options configures a Navigator.
type Options struct {
	// Static is the static catalog document. Nil uses the bundled table.
	Static []byte
	// DataDir holds the custom catalog and the favorites list.
	DataDir       string
	CustomsFile   string
	FavoritesFile string

	// Target is the uid rings are drawn around. Empty means a fresh uuid
	// per ring event.
	Target string
	// FromLine is "", "fiveline" or "nineline".
	FromLine string

	// Overlays seeds active flags at construction. May be nil.
	Overlays OverlayQuery
	// Rings receives toggle events. May be nil.
	Rings RingSink
	// Flights is an optional OSRMunitions document.
	Flights []byte
}

// Navigator is one browsing session over the catalog. It owns the tree, the
// cursor, the favorites set and the staging sets of the removal modes. It is
// not safe for concurrent use.
type Navigator struct {
	opts Options

	root      *Node
	customs   *Node
	favView   *Node
	flights   *Node // flights view under root, nil when the catalog has none
	flightSrc *Node // parsed OSRMunitions document

	cursor *Node

	favorites     *Favorites
	removing      map[int]bool
	customsStaged []int
	mode          Mode
	customsPath   string
	favoritesPath string
}

// NewNavigator builds a session. It never fails: unreadable documents
// degrade to empty collections and are logged.
func NewNavigator(opts Options) *Navigator {
	timer := logging.StartTimer(logging.CategoryCatalog, "NewNavigator")
	defer timer.Stop()

	if opts.CustomsFile == "" {
		opts.CustomsFile = CustomsFile
	}
	if opts.FavoritesFile == "" {
		opts.FavoritesFile = FavoritesFile
	}

	n := &Navigator{
		opts:          opts,
		removing:      make(map[int]bool),
		customsPath:   resolvePath(opts.DataDir, opts.CustomsFile),
		favoritesPath: resolvePath(opts.DataDir, opts.FavoritesFile),
	}

	static := opts.Static
	if static == nil {
		static = OrdnanceTable()
	}
	root, err := ParseCatalog(static)
	if err != nil {
		logging.CatalogWarn("static catalog unreadable, starting empty: %v", err)
		root = &Node{Kind: KindRoot, Name: RootElement}
		root.Append(&Node{Kind: KindFavorites, Name: FavoritesElement})
	}
	n.root = root
	n.favView = viewOf(root, KindFavorites)
	n.flights = viewOf(root, KindFlights)
	n.seedActive(root)

	n.loadFavorites()
	n.loadCustoms()

	if opts.Flights != nil {
		if err := n.SetFlights(opts.Flights); err != nil {
			logging.CatalogWarn("flights document unreadable: %v", err)
		}
	}

	n.cursor = root
	logging.Catalog("navigator ready: %d static weapons, %d customs, %d favorites",
		len(Weapons(root)), len(n.customs.Children), n.favorites.Len())
	return n
}

func resolvePath(dir, name string) string {
	if filepath.IsAbs(name) || dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

// seedActive marks every weapon under n whose ring exists on the target.
func (n *Navigator) seedActive(root *Node) {
	if n.opts.Overlays == nil || n.opts.Target == "" {
		return
	}
	seeded := 0
	for _, w := range Weapons(root) {
		if n.opts.Overlays.HasOverlay(RingUID(n.opts.Target, w.Key(), n.opts.FromLine)) {
			w.Active = true
			seeded++
		}
	}
	logging.CatalogDebug("seeded %d active weapons for target %s", seeded, n.opts.Target)
}

func (n *Navigator) loadFavorites() {
	if n.opts.DataDir != "" {
		if err := os.MkdirAll(n.opts.DataDir, 0755); err != nil {
			logging.FavoritesWarn("failed to create directory %s: %v", n.opts.DataDir, err)
		}
	}

	favs, skipped, err := LoadFavorites(n.favoritesPath)
	if err != nil {
		logging.FavoritesWarn("favorites unreadable, keeping %d ids: %v", favs.Len(), err)
	}
	if skipped > 0 {
		logging.FavoritesWarn("skipped %d malformed lines in %s", skipped, n.favoritesPath)
	}
	logging.Favorites("loaded %d favorites from %s", favs.Len(), n.favoritesPath)
	n.favorites = favs
}

func (n *Navigator) loadCustoms() {
	customs, err := LoadCustoms(n.customsPath)
	if err != nil {
		logging.CustomsWarn("customs unreadable, starting empty: %v", err)
	}
	customs.Parent = n.root
	n.customs = customs

	if _, statErr := os.Stat(n.customsPath); os.IsNotExist(statErr) {
		n.persistCustoms()
	}
}

// Reload re-reads the favorites list and the custom catalog from disk. The
// cursor stays put unless it pointed into the old customs view.
func (n *Navigator) Reload() {
	inCustoms := n.cursor == n.customs
	n.loadFavorites()
	n.loadCustoms()
	if inCustoms {
		n.cursor = n.customs
	}
	logging.Catalog("reloaded: %d customs, %d favorites", len(n.customs.Children), n.favorites.Len())
}

// =============================================================================
// NAVIGATION
// =============================================================================

// Root returns the static catalog root.
func (n *Navigator) Root() *Node { return n.root }

// Customs returns the customs view.
func (n *Navigator) Customs() *Node { return n.customs }

// Flights returns the parsed flights document, or nil.
func (n *Navigator) Flights() *Node { return n.flightSrc }

// Current returns the node under the cursor.
func (n *Navigator) Current() *Node { return n.cursor }

// AtRoot reports whether the cursor is at the catalog root.
func (n *Navigator) AtRoot() bool { return n.cursor == n.root }

// CurrentName is the name of the cursor node: the category name, or the
// element name of a view or the root.
func (n *Navigator) CurrentName() string {
	if n.cursor == nil {
		return ""
	}
	return n.cursor.Name
}

// Title is the display heading of the cursor.
func (n *Navigator) Title() string {
	return TitleOf(n.cursor)
}

// Entries returns the rows visible at the cursor.
func (n *Navigator) Entries() []*Node {
	switch n.cursor.Kind {
	case KindFavorites:
		return n.favoriteEntries()
	case KindFlights:
		if n.flightSrc == nil {
			return nil
		}
		var out []*Node
		for _, c := range n.flightSrc.Children {
			if c.Kind == KindCategory {
				out = append(out, c)
			}
		}
		return out
	}

	var out []*Node
	for _, c := range n.cursor.Children {
		switch {
		case c.Kind == KindFavorites, c.Kind == KindCustoms:
		case c.Name == MortarElement && n.opts.FromLine == "nineline":
		default:
			out = append(out, c)
		}
	}
	return out
}

func (n *Navigator) favoriteEntries() []*Node {
	var out []*Node
	for _, id := range n.favorites.IDs() {
		w := n.resolveFavorite(id)
		if w == nil {
			logging.FavoritesDebug("favorite %d resolves to no weapon", id)
			continue
		}
		out = append(out, w)
	}
	return out
}

func (n *Navigator) resolveFavorite(id int) *Node {
	if w := FindByID(n.root, id); w != nil {
		return w
	}
	return FindByID(n.customs, id)
}

// Descend moves the cursor into the i-th visible row when it is a container.
// Returns false for weapons, out-of-range rows and inside the favorites and
// customs views.
func (n *Navigator) Descend(i int) bool {
	if n.cursor.Kind == KindFavorites || n.cursor.Kind == KindCustoms {
		return false
	}
	entries := n.Entries()
	if i < 0 || i >= len(entries) {
		logging.CatalogDebug("descend: row %d out of range (%d rows)", i, len(entries))
		return false
	}
	child := entries[i]
	if child.Kind == KindWeapon {
		return false
	}
	n.cursor = child
	logging.CatalogDebug("descend -> %s", child.Name)
	return true
}

// Ascend moves the cursor to its parent. The customs and flights views
// return straight to the root. No-op at the root.
func (n *Navigator) Ascend() {
	switch n.cursor.Kind {
	case KindRoot:
		return
	case KindCustoms, KindFlights:
		n.cursor = n.root
	default:
		if n.cursor.Parent == nil {
			n.cursor = n.root
		} else {
			n.cursor = n.cursor.Parent
		}
	}
	logging.CatalogDebug("ascend -> %s", n.cursor.Name)
}

// AscendToRoot ascends until the cursor is at the root.
func (n *Navigator) AscendToRoot() {
	for n.cursor != n.root {
		n.Ascend()
	}
}

// JumpToFavorites moves the cursor to the favorites view.
func (n *Navigator) JumpToFavorites() {
	n.cursor = n.favView
}

// JumpToCustoms moves the cursor to the customs view.
func (n *Navigator) JumpToCustoms() {
	n.cursor = n.customs
}

// InFlights reports whether the cursor is inside the flights subtree.
func (n *Navigator) InFlights() bool {
	for c := n.cursor; c != nil; c = c.Parent {
		if c.Kind == KindFlights {
			return true
		}
	}
	return false
}

// SetFlights parses an OSRMunitions document, seeds its active flags and
// installs it under the flights view, creating the view when the catalog
// lacks one.
func (n *Navigator) SetFlights(data []byte) error {
	src, err := ParseFlights(data)
	if err != nil {
		return err
	}
	if n.flights == nil {
		n.flights = &Node{Kind: KindFlights, Name: FlightsElement}
		n.root.Append(n.flights)
	}
	n.seedActive(src)
	src.Parent = n.flights
	for _, c := range src.Children {
		c.Parent = n.flights
	}
	if n.InFlights() {
		n.cursor = n.flights
	}
	n.flightSrc = src
	logging.Catalog("installed %d flight categories", len(src.Children))
	return nil
}

// =============================================================================
// LOOKUP
// =============================================================================

// Lookup resolves id against the static catalog, the customs and the flights.
func (n *Navigator) Lookup(id int) *Node {
	for _, scope := range []*Node{n.root, n.customs, n.flightSrc} {
		if scope == nil {
			continue
		}
		if w := FindByID(scope, id); w != nil {
			return w
		}
	}
	return nil
}

// locate searches the cursor's subtree first, then the remaining scopes.
func (n *Navigator) locate(id int) *Node {
	var scopes []*Node
	switch n.cursor.Kind {
	case KindFavorites:
		scopes = []*Node{n.customs, n.root}
	case KindFlights:
		scopes = []*Node{n.flightSrc, n.customs, n.root}
	default:
		scopes = []*Node{n.cursor, n.customs, n.root, n.flightSrc}
	}
	for _, scope := range scopes {
		if scope == nil {
			continue
		}
		if w := FindByID(scope, id); w != nil {
			return w
		}
	}
	return nil
}

// IsCustom reports whether w lives in the customs view.
func (n *Navigator) IsCustom(w *Node) bool {
	return w != nil && w.Parent == n.customs
}

// CategoryNameFor returns the owning category name of a weapon. For
// favorites this is the true category, not "Favorites". Returns false when
// the id resolves nowhere.
func (n *Navigator) CategoryNameFor(id int) (string, bool) {
	w := n.locate(id)
	if w == nil {
		return "", false
	}
	return CategoryName(w.Parent), true
}

// =============================================================================
// ACTIVE STATE
// =============================================================================

// SetActive writes the active flag of a weapon. Custom weapons are persisted
// immediately. Returns false when the id resolves nowhere.
func (n *Navigator) SetActive(id int, active bool) bool {
	w := n.locate(id)
	if w == nil {
		logging.CatalogDebug("set active: id %d not found", id)
		return false
	}
	w.Active = active
	logging.CatalogDebug("set %d active status to %v", id, active)
	if n.IsCustom(w) {
		n.persistCustoms()
	}
	return true
}

// Activate marks a weapon active and asks the ring sink to draw its rings.
func (n *Navigator) Activate(id int) bool {
	return n.toggle(id, true)
}

// Deactivate marks a weapon inactive and asks the ring sink to remove its rings.
func (n *Navigator) Deactivate(id int) bool {
	return n.toggle(id, false)
}

func (n *Navigator) toggle(id int, active bool) bool {
	w := n.locate(id)
	if w == nil {
		logging.CatalogDebug("toggle: id %d not found", id)
		return false
	}
	category, _ := n.CategoryNameFor(id)
	n.SetActive(id, active)
	n.emit(w, category, !active)

	ev := logging.AuditWeaponActivate
	if !active {
		ev = logging.AuditWeaponDeactivate
	}
	logging.AuditWeapon(ev, id, w.Name, category, nil)
	return true
}

func (n *Navigator) emit(w *Node, category string, remove bool) {
	if n.opts.Rings == nil {
		return
	}
	target := n.opts.Target
	if target == "" {
		target = uuid.NewString()
	}
	ev := RingEvent{
		Name:     w.Key(),
		Category: category,
		Target:   target,
		FromLine: n.opts.FromLine,
		Remove:   remove,
	}
	if !remove {
		ev.InnerRange = w.InnerRange()
		ev.OuterRange = w.OuterRange()
		ev.Description = w.Description
	}
	if err := n.opts.Rings.ToggleRing(ev); err != nil {
		logging.RingsError("ring event for %s failed: %v", ev.Name, err)
	}
}

func (n *Navigator) purge(w *Node, category string) {
	p, ok := n.opts.Rings.(RingPurger)
	if !ok {
		return
	}
	if err := p.PurgeRings(w.Key(), category); err != nil {
		logging.RingsError("purging rings of %s failed: %v", w.Key(), err)
	}
}

// ActiveCountUnder counts active weapons below n. The flights view counts
// the installed flights document; the favorites view counts its resolved
// favorites.
func (n *Navigator) ActiveCountUnder(node *Node) int {
	if node == nil {
		return 0
	}
	switch node.Kind {
	case KindWeapon:
		return 0
	case KindFlights:
		return countActive(n.flightSrc)
	case KindFavorites:
		count := 0
		for _, w := range n.favoriteEntries() {
			if w.Active {
				count++
			}
		}
		return count
	}

	count := 0
	for _, c := range node.Children {
		switch c.Kind {
		case KindWeapon:
			if c.Active {
				count++
			}
		case KindFavorites:
		default:
			count += n.ActiveCountUnder(c)
		}
	}
	return count
}

func countActive(root *Node) int {
	count := 0
	for _, w := range Weapons(root) {
		if w.Active {
			count++
		}
	}
	return count
}

// DeactivateAll clears every active flag in the static catalog, the flights
// and the customs. Customs are persisted once. Returns how many flags were
// cleared.
func (n *Navigator) DeactivateAll() int {
	cleared := 0
	customChanged := false
	for _, scope := range []*Node{n.root, n.flightSrc, n.customs} {
		for _, w := range Weapons(scope) {
			if !w.Active {
				continue
			}
			w.Active = false
			cleared++
			logging.CatalogDebug("[%d] set active to false", w.ID)
			if n.IsCustom(w) {
				customChanged = true
			}
		}
	}
	if customChanged {
		n.persistCustoms()
	}
	logging.Audit(logging.AuditEvent{
		EventType: logging.AuditDeactivateAll,
		Target:    n.opts.Target,
		Count:     cleared,
		Success:   true,
	})
	return cleared
}

// ActiveWeapons returns every active weapon.
func (n *Navigator) ActiveWeapons() []*Node {
	var out []*Node
	for _, scope := range []*Node{n.root, n.flightSrc, n.customs} {
		for _, w := range Weapons(scope) {
			if w.Active {
				out = append(out, w)
			}
		}
	}
	return out
}

// =============================================================================
// FAVORITES
// =============================================================================

// Favorites returns the favorite ids in insertion order.
func (n *Navigator) Favorites() []int { return n.favorites.IDs() }

// IsFavorite reports whether id is a favorite.
func (n *Navigator) IsFavorite(id int) bool { return n.favorites.Contains(id) }

// AddFavorite adds id and rewrites the favorites list. Flight weapons cannot
// be favorited; returns false for them.
func (n *Navigator) AddFavorite(id int) bool {
	if n.InFlights() || FindByID(n.flightSrc, id) != nil {
		logging.FavoritesDebug("refusing to favorite flight weapon %d", id)
		return false
	}
	n.favorites.Add(id)
	n.persistFavorites()
	logging.AuditWeapon(logging.AuditFavoriteAdd, id, "", "", nil)
	return true
}

// RemoveFavorite removes id and rewrites the favorites list.
func (n *Navigator) RemoveFavorite(id int) {
	n.favorites.Remove(id)
	n.persistFavorites()
	logging.AuditWeapon(logging.AuditFavoriteRemove, id, "", "", nil)
}

// MarkFavoriteForRemoval unfavorites id and stages it, or restores it.
func (n *Navigator) MarkFavoriteForRemoval(id int, marked bool) {
	if marked {
		n.RemoveFavorite(id)
		n.removing[id] = true
		return
	}
	n.AddFavorite(id)
	delete(n.removing, id)
}

// IsMarkedForRemoval reports whether id is staged in remove-favorites mode.
func (n *Navigator) IsMarkedForRemoval(id int) bool {
	return n.removing[id]
}

// PruneFavorites drops favorites that resolve to no weapon and returns them.
func (n *Navigator) PruneFavorites() []int {
	var pruned []int
	for _, id := range n.favorites.IDs() {
		if n.resolveFavorite(id) == nil {
			n.favorites.Remove(id)
			pruned = append(pruned, id)
		}
	}
	if len(pruned) > 0 {
		n.persistFavorites()
		logging.Audit(logging.AuditEvent{EventType: logging.AuditFavoritePrune, Count: len(pruned), Success: true})
	}
	return pruned
}

func (n *Navigator) persistFavorites() {
	if err := SaveFavorites(n.favoritesPath, n.favorites); err != nil {
		logging.FavoritesError("error saving favorites: %v", err)
	}
}

// =============================================================================
// MODES
// =============================================================================

// Mode returns the selection mode.
func (n *Navigator) Mode() Mode { return n.mode }

// SetMode switches selection mode. Entering remove-favorites clears its
// staging set; leaving remove-customs clears the custom staging set.
func (n *Navigator) SetMode(m Mode) {
	if m == ModeRemoveFavorites && n.mode != ModeRemoveFavorites {
		n.removing = make(map[int]bool)
	}
	if n.mode == ModeRemoveCustoms && m != ModeRemoveCustoms {
		n.customsStaged = nil
	}
	n.mode = m
}

// =============================================================================
// CUSTOMS
// =============================================================================

// CreateOrEditCustom creates a custom weapon when id <= 0, otherwise
// overwrites the fields of custom weapon id. A RED carries prone and
// optional prone-protected ranges; an MSD (non-empty ricochet fan) leaves
// them empty. The custom document is rewritten afterwards.
func (n *Navigator) CreateOrEditCustom(id int, f CustomFields) (*Node, error) {
	if id > 0 {
		w := FindByID(n.customs, id)
		if w == nil {
			logging.CustomsError("there was a problem with the weapon id %d", id)
			logging.AuditWeapon(logging.AuditCustomEdit, id, f.Name, CustomsElement, ErrNotFound)
			return nil, fmt.Errorf("edit custom %d: %w", id, ErrNotFound)
		}
		w.Name = f.Name
		w.Description = f.Description
		w.Standing = f.Standing
		setRanges(w, f)
		n.persistCustoms()
		logging.Customs("edited custom %d (%s)", id, f.Name)
		logging.AuditWeapon(logging.AuditCustomEdit, id, f.Name, CustomsElement, nil)
		return w, nil
	}

	w := &Node{
		Kind:        KindWeapon,
		ID:          n.nextCustomID(),
		Name:        f.Name,
		Description: f.Description,
		Standing:    f.Standing,
	}
	setRanges(w, f)
	n.customs.Append(w)
	n.persistCustoms()
	logging.Customs("created custom %d (%s, %s)", w.ID, w.Name, w.Style())
	logging.AuditWeapon(logging.AuditCustomCreate, w.ID, w.Name, CustomsElement, nil)
	return w, nil
}

// setRanges writes either the prone pair or the ricochet fan, never both.
// A non-empty fan makes the weapon an MSD.
func setRanges(w *Node, f CustomFields) {
	if f.RicochetFan == "" {
		w.Prone = f.Prone
		w.ProneProtected = f.ProneProtected
		w.RicochetFan = ""
		return
	}
	w.Prone = ""
	w.ProneProtected = ""
	w.RicochetFan = f.RicochetFan
}

// nextCustomID is one above every existing custom and static id, and never
// below ReservedStaticIDs+1.
func (n *Navigator) nextCustomID() int {
	max := ReservedStaticIDs
	for _, scope := range []*Node{n.root, n.customs} {
		if m := MaxID(scope); m > max {
			max = m
		}
	}
	return max + 1
}

// StageCustomRemoval adds or drops id from the custom removal staging set.
func (n *Navigator) StageCustomRemoval(id int, staged bool) {
	for i, v := range n.customsStaged {
		if v == id {
			if !staged {
				n.customsStaged = append(n.customsStaged[:i], n.customsStaged[i+1:]...)
			}
			return
		}
	}
	if staged {
		n.customsStaged = append(n.customsStaged, id)
	}
}

// StagedCustoms returns the ids staged for removal.
func (n *Navigator) StagedCustoms() []int {
	out := make([]int, len(n.customsStaged))
	copy(out, n.customsStaged)
	return out
}

// RemoveCustoms deletes every staged custom weapon. Each one is unfavorited
// and, when active, deactivated through the ring sink before removal. When
// the sink is also a RingPurger its rings are removed from every target.
// Both documents are written once. Returns the removed ids.
func (n *Navigator) RemoveCustoms() []int {
	if len(n.customsStaged) == 0 {
		return nil
	}

	var removed []int
	favChanged := false
	for _, id := range n.customsStaged {
		if n.favorites.Remove(id) {
			favChanged = true
		}
		w := FindByID(n.customs, id)
		if w == nil {
			logging.CustomsDebug("staged custom %d no longer exists", id)
			continue
		}
		if w.Active {
			w.Active = false
			n.emit(w, CustomsElement, true)
		}
		n.purge(w, CustomsElement)
		n.customs.remove(w)
		removed = append(removed, id)
		logging.AuditWeapon(logging.AuditCustomRemove, id, w.Name, CustomsElement, nil)
	}
	n.customsStaged = nil

	if favChanged {
		n.persistFavorites()
	}
	n.persistCustoms()
	logging.Customs("removed %d customs", len(removed))
	return removed
}

// RemoveCustom stages and removes ids in one call.
func (n *Navigator) RemoveCustom(ids ...int) []int {
	for _, id := range ids {
		n.StageCustomRemoval(id, true)
	}
	return n.RemoveCustoms()
}

func (n *Navigator) persistCustoms() {
	if err := SaveCustoms(n.customsPath, n.customs); err != nil {
		logging.CustomsError("error saving customs: %v", err)
	}
}

// =============================================================================
// SEARCH
// =============================================================================

// Search ranks static, custom and flight weapons by name.
func (n *Navigator) Search(query string, limit int) []Match {
	return Search(query, limit, n.root, n.customs, n.flightSrc)
}

// SortedCustoms returns custom weapons ordered by id.
func (n *Navigator) SortedCustoms() []*Node {
	out := append([]*Node(nil), n.customs.Children...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
