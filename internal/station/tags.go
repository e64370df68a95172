package station

import "github.com/bbernstein/postofinder/backend-go/internal/models"

// Tags is the free-form key/value map attached to an OpenStreetMap element.
type Tags map[string]string

// GetString returns the tag value. Empty values are treated as absent.
func (t Tags) GetString(key string) (string, bool) {
	v, ok := t[key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// OptionalString returns nil for absent tags.
func (t Tags) OptionalString(key string) *string {
	v, ok := t.GetString(key)
	if !ok {
		return nil
	}
	return &v
}

type fuelLabel struct {
	tag   string
	label string
}

// Checklist order is the output order.
var fuelLabels = []fuelLabel{
	{tag: "fuel:diesel", label: "Diesel"},
	{tag: "fuel:octane_95", label: "Regular Gasoline"},
	{tag: "fuel:octane_98", label: "Premium Gasoline"},
	{tag: "fuel:e85", label: "Ethanol"},
	{tag: "fuel:lpg", label: "LPG"},
	{tag: "fuel:cng", label: "CNG"},
}

// ExtractName prefers name, then brand, then operator.
func ExtractName(tags Tags) string {
	for _, key := range []string{"name", "brand", "operator"} {
		if v, ok := tags.GetString(key); ok {
			return v
		}
	}
	return models.DefaultStationName
}

// FormatAddressFromTags builds "street, number, city, state" from addr:* tags.
// A house number without a street is ignored.
func FormatAddressFromTags(tags Tags) string {
	street, _ := tags.GetString("addr:street")
	number, _ := tags.GetString("addr:housenumber")
	city, _ := tags.GetString("addr:city")
	state, _ := tags.GetString("addr:state")

	return models.JoinAddress(models.StreetLine(street, number), city, state)
}

// ExtractFuelTypes never returns nil so the JSON form is always an array.
func ExtractFuelTypes(tags Tags) []string {
	fuelTypes := make([]string, 0, len(fuelLabels))
	for _, f := range fuelLabels {
		if tags[f.tag] == "yes" {
			fuelTypes = append(fuelTypes, f.label)
		}
	}
	return fuelTypes
}

// NewStation normalizes one Overpass element located at coord.
func NewStation(coord models.Coordinate, tags Tags) models.Station {
	return models.Station{
		Coordinate:   coord,
		Name:         ExtractName(tags),
		Address:      FormatAddressFromTags(tags),
		OpeningHours: tags.OptionalString("opening_hours"),
		Brand:        tags.OptionalString("brand"),
		Operator:     tags.OptionalString("operator"),
		FuelTypes:    ExtractFuelTypes(tags),
	}
}
