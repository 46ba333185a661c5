package anp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rodacerto/fuel-price-updater/internal/models"
)

var stateCodes = map[string]string{
	"ACRE":                "AC",
	"ALAGOAS":             "AL",
	"AMAPA":               "AP",
	"AMAZONAS":            "AM",
	"BAHIA":               "BA",
	"CEARA":               "CE",
	"DISTRITO FEDERAL":    "DF",
	"ESPIRITO SANTO":      "ES",
	"GOIAS":               "GO",
	"MARANHAO":            "MA",
	"MATO GROSSO":         "MT",
	"MATO GROSSO DO SUL":  "MS",
	"MINAS GERAIS":        "MG",
	"PARA":                "PA",
	"PARAIBA":             "PB",
	"PARANA":              "PR",
	"PERNAMBUCO":          "PE",
	"PIAUI":               "PI",
	"RIO DE JANEIRO":      "RJ",
	"RIO GRANDE DO NORTE": "RN",
	"RIO GRANDE DO SUL":   "RS",
	"RONDONIA":            "RO",
	"RORAIMA":             "RR",
	"SANTA CATARINA":      "SC",
	"SAO PAULO":           "SP",
	"SERGIPE":             "SE",
	"TOCANTINS":           "TO",
}

var fuelKinds = map[string]models.FuelKind{
	"GASOLINA":         models.FuelGasolina,
	"GASOLINA COMUM":   models.FuelGasolina,
	"ETANOL":           models.FuelEtanol,
	"ETANOL HIDRATADO": models.FuelEtanol,
	"DIESEL":           models.FuelDiesel,
	"OLEO DIESEL":      models.FuelDiesel,
	"GNV":              models.FuelGNV,
}

// normalize upper-cases, strips accents and collapses whitespace.
func normalize(s string) string {
	// Transformers carry state, so the chain is built per call.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(stripMarks, s); err == nil {
		s = stripped
	}
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

// stateCode accepts either a two-letter code or a full state name.
func stateCode(s string) (string, bool) {
	n := normalize(s)
	if len(n) == 2 {
		for _, code := range stateCodes {
			if code == n {
				return code, true
			}
		}
		return "", false
	}
	code, ok := stateCodes[n]
	return code, ok
}

func fuelKind(s string) (models.FuelKind, bool) {
	kind, ok := fuelKinds[normalize(s)]
	return kind, ok
}
