package munitions

import (
	"strings"
)

// RootTitle is the title shown at the top of the catalog.
const RootTitle = "REDs and MSDs"

// SplitDisplayName turns a catalog name into a row title and an optional
// subtitle. Underscores become spaces; a trailing "(...)" group or an
// "airburst"/"contact" suffix becomes the subtitle.
func SplitDisplayName(name string) (title, sub string) {
	title = strings.ReplaceAll(name, "_", " ")

	if open := strings.Index(title, "("); open >= 0 {
		if close := strings.LastIndex(title, ")"); close > open {
			sub = title[open+1 : close]
			title = strings.TrimSpace(title[:open] + title[close+1:])
			return title, sub
		}
	}

	lower := strings.ToLower(title)
	for _, suffix := range []string{"airburst", "contact"} {
		if strings.HasSuffix(lower, suffix) && len(title) > len(suffix) {
			return strings.TrimSpace(title[:len(title)-len(suffix)]), suffix
		}
	}
	return title, ""
}

// DisplayName is SplitDisplayName's title and subtitle joined for one-line output.
func DisplayName(name string) string {
	title, sub := SplitDisplayName(name)
	if sub == "" {
		return title
	}
	return title + " (" + sub + ")"
}

// TitleOf returns the heading for a cursor position.
func TitleOf(n *Node) string {
	if n == nil {
		return RootTitle
	}
	switch n.Kind {
	case KindRoot:
		return RootTitle
	case KindFavorites:
		return "Favorites"
	case KindCustoms:
		return "Custom Threat Rings"
	case KindFlights:
		return "Current Flights"
	default:
		return strings.ReplaceAll(n.Name, "_", " ")
	}
}
