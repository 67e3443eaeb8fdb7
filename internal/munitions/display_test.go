package munitions

import "testing"

func TestSplitDisplayName(t *testing.T) {
	tests := []struct {
		in, title, sub string
	}{
		{"60mm Mortar (Handheld)", "60mm Mortar", "Handheld"},
		{"Unguided_Mortar", "Unguided Mortar", ""},
		{"AC-130 105mm airburst", "AC-130 105mm", "airburst"},
		{"40mm Grenade Contact", "40mm Grenade", "contact"},
		{"Excalibur (M982)", "Excalibur", "M982"},
		{"contact", "contact", ""},
		{"Broken (paren", "Broken (paren", ""},
	}
	for _, tt := range tests {
		title, sub := SplitDisplayName(tt.in)
		if title != tt.title || sub != tt.sub {
			t.Errorf("SplitDisplayName(%q) = (%q, %q), want (%q, %q)", tt.in, title, sub, tt.title, tt.sub)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("GBU-39_SDB (250 lb)"); got != "GBU-39 SDB (250 lb)" {
		t.Errorf("DisplayName = %q", got)
	}
}

func TestTitleOf(t *testing.T) {
	tests := []struct {
		node *Node
		want string
	}{
		{nil, RootTitle},
		{&Node{Kind: KindRoot, Name: RootElement}, RootTitle},
		{&Node{Kind: KindFavorites, Name: FavoritesElement}, "Favorites"},
		{&Node{Kind: KindCustoms, Name: CustomsElement}, "Custom Threat Rings"},
		{&Node{Kind: KindFlights, Name: FlightsElement}, "Current Flights"},
		{&Node{Kind: KindCategory, Name: "Precision_Guided"}, "Precision Guided"},
	}
	for _, tt := range tests {
		if got := TitleOf(tt.node); got != tt.want {
			t.Errorf("TitleOf(%v) = %q, want %q", tt.node, got, tt.want)
		}
	}
}

func TestNode_Ranges(t *testing.T) {
	red := &Node{Kind: KindWeapon, Standing: "500", Prone: "300", ProneProtected: "200"}
	if red.InnerRange() != 200 || !red.IsProneProtected() || red.Style() != StyleRED {
		t.Errorf("prone protected RED: inner=%d", red.InnerRange())
	}
	msd := &Node{Kind: KindWeapon, Standing: "1100", RicochetFan: "30° / 1000m"}
	if msd.InnerRange() != 0 || msd.OuterRange() != 1100 || msd.Style() != StyleMSD {
		t.Errorf("MSD ranges wrong: inner=%d outer=%d", msd.InnerRange(), msd.OuterRange())
	}
	cat := &Node{Kind: KindCategory}
	if cat.OuterRange() != 0 || cat.IsWeapon() {
		t.Error("category has no ranges")
	}
	if got := WeaponKey("Mk 82", 164); got != "Mk 82[164]" {
		t.Errorf("WeaponKey = %q", got)
	}
	if got := RingUID("T", "Mk 82[164]", ""); got != "T.Mk 82[164]" {
		t.Errorf("RingUID = %q", got)
	}
}
