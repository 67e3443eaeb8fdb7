package munitions

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"dangerclose/internal/logging"
)

//go:embed ordnance_table.xml
var ordnanceTable []byte

// OrdnanceTable returns the bundled static catalog document.
func OrdnanceTable() []byte {
	return ordnanceTable
}

// element is a generic XML element: catalogs nest arbitrarily and element
// names carry meaning, so they are decoded without a fixed schema.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
}

func (e *element) attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// ParseCatalog decodes a static catalog document into a tree rooted at a
// KindRoot node. A Favorites view is added when the document has none.
func ParseCatalog(data []byte) (*Node, error) {
	var doc element
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	root := &Node{Kind: KindRoot, Name: doc.XMLName.Local}
	for i := range doc.Children {
		if n := convert(&doc.Children[i]); n != nil {
			root.Append(n)
		}
	}

	if viewOf(root, KindFavorites) == nil {
		root.Append(&Node{Kind: KindFavorites, Name: FavoritesElement})
	}
	return root, nil
}

// ParseFlights decodes an OSRMunitions document. The returned node holds the
// flight categories; other top-level elements are dropped.
func ParseFlights(data []byte) (*Node, error) {
	var doc element
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode flights: %w", err)
	}
	root := &Node{Kind: KindCategory, Name: doc.XMLName.Local}
	for i := range doc.Children {
		if !strings.HasPrefix(doc.Children[i].XMLName.Local, "category") {
			continue
		}
		if n := convert(&doc.Children[i]); n != nil {
			root.Append(n)
		}
	}
	return root, nil
}

func convert(e *element) *Node {
	switch e.XMLName.Local {
	case "weapon":
		return weaponFromAttrs(e.Attrs)
	case FavoritesElement:
		return &Node{Kind: KindFavorites, Name: FavoritesElement}
	case FlightsElement:
		return &Node{Kind: KindFlights, Name: FlightsElement}
	case CustomsElement:
		// Customs live in their own document.
		return nil
	}

	n := &Node{Kind: KindCategory, Name: e.XMLName.Local}
	if name, ok := e.attr("name"); ok {
		n.Name = name
	}
	for i := range e.Children {
		if c := convert(&e.Children[i]); c != nil {
			n.Append(c)
		}
	}
	return n
}

func weaponFromAttrs(attrs []xml.Attr) *Node {
	n := &Node{Kind: KindWeapon}
	for _, a := range attrs {
		switch a.Name.Local {
		case "ID":
			id, err := strconv.Atoi(a.Value)
			if err != nil {
				logging.CatalogDebug("weapon with bad ID %q", a.Value)
			}
			n.ID = id
		case "name":
			n.Name = a.Value
		case "description":
			n.Description = a.Value
		case "standing":
			n.Standing = a.Value
		case "prone":
			n.Prone = a.Value
		case "proneprotected":
			n.ProneProtected = a.Value
		case "ricochetfan":
			n.RicochetFan = a.Value
		case "active":
			n.Active, _ = strconv.ParseBool(a.Value)
		}
	}
	return n
}

// weaponAttrs renders a weapon in document attribute order.
func weaponAttrs(n *Node) []xml.Attr {
	return []xml.Attr{
		{Name: xml.Name{Local: "ID"}, Value: strconv.Itoa(n.ID)},
		{Name: xml.Name{Local: "active"}, Value: strconv.FormatBool(n.Active)},
		{Name: xml.Name{Local: "description"}, Value: n.Description},
		{Name: xml.Name{Local: "name"}, Value: n.Name},
		{Name: xml.Name{Local: "standing"}, Value: n.Standing},
		{Name: xml.Name{Local: "prone"}, Value: n.Prone},
		{Name: xml.Name{Local: "proneprotected"}, Value: n.ProneProtected},
		{Name: xml.Name{Local: "ricochetfan"}, Value: n.RicochetFan},
	}
}

// viewOf returns the first direct child of n with the given kind.
func viewOf(n *Node, kind Kind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}
