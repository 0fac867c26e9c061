package models

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type PropertyType string

const (
	PropertyTypeUnknown    PropertyType = ""
	PropertyTypeApartment  PropertyType = "apartment"
	PropertyTypeHouse      PropertyType = "house"
	PropertyTypeLand       PropertyType = "land"
	PropertyTypeCommercial PropertyType = "commercial"
)

// backend vocabulary, also used for display
var backendLabels = map[PropertyType]string{
	PropertyTypeApartment:  "apartamento",
	PropertyTypeHouse:      "casa",
	PropertyTypeLand:       "terreno",
	PropertyTypeCommercial: "comercial",
}

var displayLabels = map[PropertyType]string{
	PropertyTypeApartment:  "Apartamento",
	PropertyTypeHouse:      "Casa",
	PropertyTypeLand:       "Terreno",
	PropertyTypeCommercial: "Comercial",
}

var typeAliases = map[string]PropertyType{
	"apartamento": PropertyTypeApartment,
	"apartment":   PropertyTypeApartment,
	"apto":        PropertyTypeApartment,
	"casa":        PropertyTypeHouse,
	"house":       PropertyTypeHouse,
	"sobrado":     PropertyTypeHouse,
	"terreno":     PropertyTypeLand,
	"land":        PropertyTypeLand,
	"lote":        PropertyTypeLand,
	"comercial":   PropertyTypeCommercial,
	"commercial":  PropertyTypeCommercial,
	"loja":        PropertyTypeCommercial,
	"sala":        PropertyTypeCommercial,
}

// ParsePropertyType maps a free-form label onto the enum. Matching ignores
// case, accents and surrounding whitespace; unknown labels yield PropertyTypeUnknown.
func ParsePropertyType(label string) PropertyType {
	key := foldLabel(label)
	if key == "" {
		return PropertyTypeUnknown
	}
	if t, ok := typeAliases[key]; ok {
		return t
	}
	// "Apartamento 3 quartos" and similar
	if first, _, found := strings.Cut(key, " "); found {
		if t, ok := typeAliases[first]; ok {
			return t
		}
	}
	return PropertyTypeUnknown
}

// BackendLabel returns the label the analysis backend understands.
func (t PropertyType) BackendLabel() string {
	return backendLabels[t]
}

// DisplayLabel returns the Portuguese label shown on the review screen.
func (t PropertyType) DisplayLabel() string {
	return displayLabels[t]
}

func (t PropertyType) Valid() bool {
	_, ok := backendLabels[t]
	return ok || t == PropertyTypeUnknown
}

func foldLabel(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
