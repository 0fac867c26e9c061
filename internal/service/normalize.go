package service

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"leilao-insights/internal/dto"
	"leilao-insights/internal/models"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// leadingFloatRegexp matches the numeric prefix parseFloat would accept.
var leadingFloatRegexp = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	models.DateLayout,
	"02/01/2006 15:04",
	"02/01/2006",
}

// CheckExtraction decides whether an extraction response can be normalized.
func CheckExtraction(status int, body []byte) error {
	return checkResponse(EndpointExtract, status, body, extractGenericMessage, false)
}

// NormalizeExtraction maps an untrusted extraction response onto a fully
// populated canonical record. It never fails: every missing or malformed
// field falls back to its default.
func NormalizeExtraction(body []byte, now time.Time) models.PropertyAnalysis {
	root := gjson.ParseBytes(body)
	p := root.Get("dados_imovel")

	return models.PropertyAnalysis{
		Property: models.Property{
			Title:           stringField(p.Get("titulo")),
			PropertyType:    models.ParsePropertyType(stringField(p.Get("tipo_imovel"))),
			TotalAreaSqm:    floatField(p.Get("area_total")),
			Street:          stringField(p.Get("endereco")),
			Neighborhood:    stringField(p.Get("bairro")),
			City:            stringField(p.Get("cidade")),
			State:           stringField(p.Get("estado")),
			InitialBidValue: decimalField(p.Get("valor_inicial")),
			CurrentValue:    decimalField(p.Get("valor_atual")),
			StartDate:       dateField(p.Get("data_inicio"), now),
			Images:          stringsField(p.Get("imagens")),
		},
		AuctionType:     stringField(root.Get("tipo_leilao")),
		EndDate:         dateField(root.Get("data_fim"), now),
		Documents:       stringsField(root.Get("documentos")),
		Recommendations: stringsField(root.Get("recomendacoes")),
	}
}

// ToExtractionPayload renders a canonical record in the extraction response
// shape. Normalizing the result yields the same record.
func ToExtractionPayload(a models.PropertyAnalysis) []byte {
	payload := dto.ExtractionPayload{
		DadosImovel: dto.ExtractionProperty{
			Titulo:       a.Property.Title,
			TipoImovel:   a.Property.PropertyType.BackendLabel(),
			AreaTotal:    a.Property.TotalAreaSqm,
			Endereco:     a.Property.Street,
			Bairro:       a.Property.Neighborhood,
			Cidade:       a.Property.City,
			Estado:       a.Property.State,
			ValorInicial: a.Property.InitialBidValue.InexactFloat64(),
			ValorAtual:   a.Property.CurrentValue.InexactFloat64(),
			DataInicio:   a.Property.StartDate,
			Imagens:      a.Property.Images,
		},
		TipoLeilao:    a.AuctionType,
		DataFim:       a.EndDate,
		Documentos:    a.Documents,
		Recomendacoes: a.Recommendations,
	}
	out, _ := json.Marshal(payload)
	return out
}

// ParseLeadingFloat parses the numeric prefix of s. Anything that yields no
// number, a negative number or a non-finite value becomes 0.
func ParseLeadingFloat(s string) float64 {
	match := leadingFloatRegexp.FindString(strings.TrimSpace(s))
	if match == "" {
		return 0
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return nonNegative(f)
}

// ParseCalendarDate reduces a date or timestamp to YYYY-MM-DD in UTC.
func ParseCalendarDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(models.DateLayout), true
		}
	}
	return "", false
}

func checkResponse(endpoint string, status int, body []byte, generic string, checkObservations bool) error {
	root := gjson.ParseBytes(body)
	isObject := gjson.ValidBytes(body) && root.IsObject()

	var errField gjson.Result
	var observations string
	if isObject {
		errField = root.Get("error")
		if checkObservations {
			observations = stringField(root.Get("observacoes"))
		}
	}

	failed := status < 200 || status > 299 ||
		!isObject ||
		truthy(errField) ||
		strings.Contains(observations, ObservationErrorMarker)
	if !failed {
		return nil
	}

	msg := generic
	switch {
	case observations != "":
		msg = observations
	case stringField(errField) != "":
		msg = stringField(errField)
	}
	return &BackendError{Endpoint: endpoint, Status: status, Message: msg}
}

func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True, gjson.JSON:
		return true
	default:
		return false
	}
}

func stringField(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return cleanText(r.Str)
	case gjson.Number, gjson.True:
		return r.String()
	default:
		return ""
	}
}

func floatField(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return nonNegative(r.Num)
	case gjson.String:
		return ParseLeadingFloat(r.Str)
	default:
		return 0
	}
}

func decimalField(r gjson.Result) decimal.Decimal {
	return decimal.NewFromFloat(floatField(r))
}

func dateField(r gjson.Result, now time.Time) string {
	if date, ok := ParseCalendarDate(stringField(r)); ok {
		return date
	}
	return now.UTC().Format(models.DateLayout)
}

func stringsField(r gjson.Result) []string {
	if !r.IsArray() {
		return []string{}
	}
	items := r.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, stringField(item))
	}
	return out
}

func nonNegative(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}
