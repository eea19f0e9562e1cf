package terrain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Location is a named climbing venue scored as a single point.
type Location struct {
	Name        string  `json:"name" yaml:"name" validate:"required"`
	Latitude    float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Longitude   float64 `json:"lon" yaml:"lon" validate:"gte=-180,lte=180"`
	Altitude    float64 `json:"altitude" yaml:"altitude" validate:"gte=0,lte=9000"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	// Aspect is the bearing the climbing face points toward, when it has one.
	Aspect *float64 `json:"aspect,omitempty" yaml:"aspect,omitempty" validate:"omitempty,gte=0,lt=360"`
}

// Validate checks the location fields.
func (l Location) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("invalid location %q: %w", l.Name, err)
	}
	return nil
}

// DefaultLocations returns the Scottish winter climbing venues tracked out of
// the box.
func DefaultLocations() []Location {
	return []Location{
		{Name: "Carn Etchachan", Latitude: 57.090306, Longitude: -3.646159, Altitude: 1120, Description: "Summit of Carn Etchachan"},
		{Name: "Ben Nevis", Latitude: 56.798691, Longitude: -5.014505, Altitude: 1150, Description: "Number 3 gully buttress"},
		{Name: "Creag Meagaidh", Latitude: 56.955834, Longitude: -4.580079, Altitude: 850, Description: "Coire Ardair cliffs"},
		{Name: "Lochnagar", Latitude: 56.957672, Longitude: -3.241534, Altitude: 1000, Description: "Black spout wall"},
		{Name: "Beinn Eighe", Latitude: 57.584998, Longitude: -5.431174, Altitude: 850, Description: "Far east wall"},
	}
}

// Find returns the location named name (case insensitive).
func Find(list []Location, name string) (Location, bool) {
	for _, l := range list {
		if strings.EqualFold(l.Name, strings.TrimSpace(name)) {
			return l, true
		}
	}
	return Location{}, false
}

// ValidateAll checks every location and that names are unique.
func ValidateAll(list []Location) error {
	seen := make(map[string]bool, len(list))
	for _, l := range list {
		if err := l.Validate(); err != nil {
			return err
		}
		k := strings.ToLower(l.Name)
		if seen[k] {
			return fmt.Errorf("duplicate location: %s", l.Name)
		}
		seen[k] = true
	}
	return nil
}
