// Package munitions holds the danger-close weapon catalog: the typed catalog
// tree, the static and custom documents it is built from, the favorites list,
// and the Navigator session that walks and mutates it.
package munitions

import (
	"strconv"
	"strings"
)

// Kind tags a catalog node.
type Kind int

const (
	KindRoot Kind = iota
	KindCategory
	KindWeapon
	KindFavorites
	KindCustoms
	KindFlights
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindCategory:
		return "category"
	case KindWeapon:
		return "weapon"
	case KindFavorites:
		return "favorites"
	case KindCustoms:
		return "customs"
	case KindFlights:
		return "flights"
	default:
		return "unknown"
	}
}

// Element names with special meaning in catalog documents.
const (
	RootElement      = "munitions"
	FavoritesElement = "Favorites"
	CustomsElement   = "Custom_Threat_Rings"
	FlightsElement   = "Current_Flights"
	FlightsRoot      = "OSRMunitions"
	MortarElement    = "Unguided_Mortar"
)

// ReservedStaticIDs is the id of the last weapon shipped in the bundled
// ordnance table. Custom ids always start above it.
const ReservedStaticIDs = 219

// Style distinguishes the two weapon shapes.
type Style int

const (
	// StyleRED weapons carry standing, prone and prone-protected ranges.
	StyleRED Style = iota
	// StyleMSD weapons carry a standing range and a ricochet fan.
	StyleMSD
)

func (s Style) String() string {
	if s == StyleMSD {
		return "MSD"
	}
	return "RED"
}

// Node is one entry of the catalog tree. Weapon fields are only meaningful
// when Kind is KindWeapon. Range attributes keep their document text so
// empty values survive a round trip.
type Node struct {
	Kind Kind
	Name string

	ID             int
	Description    string
	Standing       string
	Prone          string
	ProneProtected string
	RicochetFan    string
	Active         bool

	Children []*Node
	Parent   *Node
}

// IsWeapon reports whether n is a leaf weapon.
func (n *Node) IsWeapon() bool {
	return n != nil && n.Kind == KindWeapon
}

// Style returns MSD when a ricochet fan is set.
func (n *Node) Style() Style {
	if n.RicochetFan != "" {
		return StyleMSD
	}
	return StyleRED
}

// OuterRange is the standing range in meters. Zero marks a category row.
func (n *Node) OuterRange() int {
	return atoi(n.Standing)
}

// InnerRange is the prone-protected range when present, otherwise prone.
func (n *Node) InnerRange() int {
	if n.ProneProtected != "" {
		return atoi(n.ProneProtected)
	}
	return atoi(n.Prone)
}

// IsProneProtected reports whether the inner range came from proneprotected.
func (n *Node) IsProneProtected() bool {
	return n.ProneProtected != ""
}

// Key is the overlay key of a weapon: "<name>[<id>]".
func (n *Node) Key() string {
	return WeaponKey(n.Name, n.ID)
}

// WeaponKey builds the overlay key for a weapon name and id.
func WeaponKey(name string, id int) string {
	return name + "[" + strconv.Itoa(id) + "]"
}

// Append adds child as the last child of n.
func (n *Node) Append(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// remove detaches child from n. Returns false when child is not a direct child.
func (n *Node) remove(child *Node) bool {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			return true
		}
	}
	return false
}

// Walk visits n and its descendants depth first. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// FindByID does a depth-first search of the subtree under n (n included)
// and returns the first weapon with the given id, or nil.
func FindByID(n *Node, id int) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.Kind == KindWeapon && c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Weapons returns every weapon under n in document order.
func Weapons(n *Node) []*Node {
	var out []*Node
	n.Walk(func(c *Node) bool {
		if c.Kind == KindWeapon {
			out = append(out, c)
		}
		return true
	})
	return out
}

// MaxID returns the largest weapon id under n, or 0.
func MaxID(n *Node) int {
	max := 0
	n.Walk(func(c *Node) bool {
		if c.Kind == KindWeapon && c.ID > max {
			max = c.ID
		}
		return true
	})
	return max
}

// CategoryName is the display category of a container node: the name of a
// category, or the element name of a view.
func CategoryName(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Name
}

func atoi(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
