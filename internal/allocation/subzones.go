package allocation

import (
	"strconv"
	"strings"
	"unicode"

	"tablebook/pkg/model"
)

// SubZoneRange maps a contiguous run of table numbers in one zone to a
// sub-zone. Tables matching no range resolve to their zone.
type SubZoneRange struct {
	Zone    string
	From    int
	To      int
	SubZone string
}

var DefaultSubZones = []SubZoneRange{
	{Zone: model.ZoneIndoor, From: 1, To: 6, SubZone: "indoor-a"},
	{Zone: model.ZoneIndoor, From: 7, To: 10, SubZone: "indoor-b"},
	{Zone: model.ZoneIndoor, From: 11, To: 14, SubZone: "indoor-c"},
}

func resolveSubZone(ranges []SubZoneRange, t *model.Table) string {
	n, ok := tableNumber(t.Number)
	if !ok {
		return t.Zone
	}
	for _, r := range ranges {
		if r.Zone == t.Zone && n >= r.From && n <= r.To {
			return r.SubZone
		}
	}
	return t.Zone
}

// tableNumber reads the numeric part of a display label such as "7" or "T7".
func tableNumber(label string) (int, bool) {
	digits := strings.TrimLeftFunc(strings.TrimSpace(label), func(r rune) bool { return !unicode.IsDigit(r) })
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
