package types

import (
	"fmt"
	"strings"
)

// Aspect is the orientation of the panels as named in the web form.
type Aspect string

const (
	AspectSouth     Aspect = "SUD"
	AspectEast      Aspect = "EST"
	AspectWest      Aspect = "OUEST"
	AspectSouthEast Aspect = "SUD-EST"
	AspectSouthWest Aspect = "SUD-OUEST"
)

var aspectDegrees = map[Aspect]int{
	AspectSouth:     0,
	AspectEast:      -90,
	AspectWest:      90,
	AspectSouthEast: -45,
	AspectSouthWest: 45,
}

func Aspects() []Aspect {
	return []Aspect{AspectSouth, AspectSouthEast, AspectSouthWest, AspectEast, AspectWest}
}

func ParseAspect(s string) (Aspect, error) {
	a := Aspect(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := aspectDegrees[a]; !ok {
		return "", fmt.Errorf("unknown aspect %q", s)
	}
	return a, nil
}

// Degrees returns the azimuth deviation from south.
func (a Aspect) Degrees() int {
	return aspectDegrees[a]
}
