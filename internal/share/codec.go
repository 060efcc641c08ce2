// Package share encodes a Scenario into an opaque, URL-fragment-safe token
// and restores it again.
//
// Current tokens look like "v1.<base64url>", where the payload is a JSON
// array holding the format version followed by every Scenario field in a
// fixed order. Tokens without a version prefix are read as the legacy
// format: standard base64 of a JSON object keyed by field name.
package share

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/iwvelando/rent-vs-buy/internal/scenario"
	"github.com/iwvelando/rent-vs-buy/pkg/mathutil"
)

// Version is the record layout written by Encode.
const Version = 1

const versionPrefix = "v1."

var (
	// ErrNoToken means there was nothing to decode; callers should fall
	// back to defaults silently.
	ErrNoToken = errors.New("no share token present")
	// ErrMalformedToken means a token was present but could not be
	// restored; callers should warn the user.
	ErrMalformedToken = errors.New("malformed share token")
)

// fields lists pointers to every Scenario field in token order. Append new
// fields at the end and bump Version.
func fields(s *scenario.Scenario) []interface{} {
	return []interface{}{
		&s.Currency,
		&s.EquipmentKey,
		&s.Quantity,
		&s.TermMonths,
		&s.AnnualRate,
		&s.TaxRate,
		&s.VATRate,
		&s.DepreciationMonths,
		&s.CostPerDownDay,
		&s.BottleneckPerMonth,
		&s.PurchasePrice,
		&s.MaintenancePctYear,
		&s.IncidentsPerYear,
		&s.FreightPerIncident,
		&s.DowntimeDaysYearBuy,
		&s.ResidualPct,
		&s.DowntimeDaysYearRent,
		&s.IncludeFreightInRent,
		&s.RealCost,
		&s.ServiceCostPerUnitMonth,
		&s.OverheadPct,
		&s.PaybackOverride,
		&s.PaybackMonths,
	}
}

// Encode renders s as a share token. Floats are written in their shortest
// round-tripping form, so Decode restores every field bit for bit.
func Encode(s scenario.Scenario) (string, error) {
	record := append([]interface{}{Version}, fields(&s)...)
	payload, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode scenario: %w", err)
	}
	return versionPrefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decode restores the Scenario held by token. A leading '#' is ignored so a
// raw URL fragment can be passed straight through. An empty token yields
// ErrNoToken; anything else that cannot be restored yields an error
// wrapping ErrMalformedToken.
func Decode(token string) (scenario.Scenario, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "#"))
	if token == "" {
		return scenario.Scenario{}, ErrNoToken
	}

	if strings.HasPrefix(token, versionPrefix) {
		return decodeRecord(strings.TrimPrefix(token, versionPrefix))
	}
	if strings.HasPrefix(token, "v") && strings.Contains(token, ".") {
		return scenario.Scenario{}, malformed("unsupported token version %q", token[:strings.Index(token, ".")])
	}
	return decodeLegacy(token)
}

func decodeRecord(body string) (scenario.Scenario, error) {
	payload, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return scenario.Scenario{}, malformed("invalid base64: %v", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return scenario.Scenario{}, malformed("invalid record: %v", err)
	}

	var s scenario.Scenario
	targets := fields(&s)
	if len(raw) != len(targets)+1 {
		return scenario.Scenario{}, malformed("expected %d fields, got %d", len(targets)+1, len(raw))
	}

	var version int
	if err := json.Unmarshal(raw[0], &version); err != nil || version != Version {
		return scenario.Scenario{}, malformed("unsupported record version %s", string(raw[0]))
	}

	for i, target := range targets {
		if err := strictUnmarshal(raw[i+1], target); err != nil {
			return scenario.Scenario{}, malformed("field %d: %v", i+1, err)
		}
	}

	if err := checkFinite(s); err != nil {
		return scenario.Scenario{}, err
	}
	return s, nil
}

// URL returns base with the share token of s as its fragment. Any fragment
// already on base is replaced.
func URL(base string, s scenario.Scenario) (string, error) {
	token, err := Encode(s)
	if err != nil {
		return "", err
	}
	if i := strings.Index(base, "#"); i >= 0 {
		base = base[:i]
	}
	return base + "#" + token, nil
}

// FromURL decodes the fragment of raw. A bare token without any '#' is
// accepted as well, so users can paste either form.
func FromURL(raw string) (scenario.Scenario, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "#"); i >= 0 {
		return Decode(raw[i+1:])
	}
	if strings.Contains(raw, "://") {
		return scenario.Scenario{}, ErrNoToken
	}
	return Decode(raw)
}

// strictUnmarshal rejects JSON null, which would otherwise silently leave
// the field at its zero value.
func strictUnmarshal(raw json.RawMessage, target interface{}) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return errors.New("null value")
	}
	return json.Unmarshal(raw, target)
}

// legacyState mirrors the named-key JSON written by the first generation of
// share links. Counts were stored as free numbers there.
type legacyState struct {
	Currency             *string  `json:"currency"`
	EquipKey             *string  `json:"equipKey"`
	Qty                  *float64 `json:"qty"`
	Term                 *float64 `json:"term"`
	AnnualRate           *float64 `json:"annualRate"`
	TaxRate              *float64 `json:"taxRate"`
	VAT                  *float64 `json:"vat"`
	DeprMonths           *float64 `json:"deprMonths"`
	CostPerDownDay       *float64 `json:"costPerDownDay"`
	BottleneckPerMonth   *float64 `json:"bottleneckPerMonth"`
	PurchasePrice        *float64 `json:"purchasePrice"`
	MaintenancePctYear   *float64 `json:"maintenancePctYear"`
	IncidentsPerYear     *float64 `json:"incidentsPerYear"`
	FreightPerIncident   *float64 `json:"freightPerIncident"`
	DowntimeDaysYearBuy  *float64 `json:"downtimeDaysYear_Buy"`
	ResidualPct          *float64 `json:"residualPct"`
	DowntimeDaysYearRent *float64 `json:"downtimeDaysYear_Rent"`
	IncludeFreightInRent *bool    `json:"includeFreightInRent"`
}

func decodeLegacy(token string) (scenario.Scenario, error) {
	payload, err := decodeStdBase64(token)
	if err != nil {
		return scenario.Scenario{}, malformed("invalid base64: %v", err)
	}

	var state legacyState
	if err := json.Unmarshal(payload, &state); err != nil {
		return scenario.Scenario{}, malformed("invalid legacy payload: %v", err)
	}

	// Fields absent from legacy links keep their defaults, including the
	// internal cost figures which were never shared.
	s := scenario.Default()
	setString(&s.Currency, state.Currency)
	setString(&s.EquipmentKey, state.EquipKey)
	setInt(&s.Quantity, state.Qty)
	setInt(&s.TermMonths, state.Term)
	setFloat(&s.AnnualRate, state.AnnualRate)
	setFloat(&s.TaxRate, state.TaxRate)
	setFloat(&s.VATRate, state.VAT)
	setInt(&s.DepreciationMonths, state.DeprMonths)
	setFloat(&s.CostPerDownDay, state.CostPerDownDay)
	setFloat(&s.BottleneckPerMonth, state.BottleneckPerMonth)
	setFloat(&s.PurchasePrice, state.PurchasePrice)
	setFloat(&s.MaintenancePctYear, state.MaintenancePctYear)
	setFloat(&s.IncidentsPerYear, state.IncidentsPerYear)
	setFloat(&s.FreightPerIncident, state.FreightPerIncident)
	setFloat(&s.DowntimeDaysYearBuy, state.DowntimeDaysYearBuy)
	setFloat(&s.ResidualPct, state.ResidualPct)
	setFloat(&s.DowntimeDaysYearRent, state.DowntimeDaysYearRent)
	if state.IncludeFreightInRent != nil {
		s.IncludeFreightInRent = *state.IncludeFreightInRent
	}
	s.PaybackMonths = scenario.DefaultPayback(s.TermMonths)

	if err := checkFinite(s); err != nil {
		return scenario.Scenario{}, err
	}
	return s, nil
}

// decodeStdBase64 accepts the padded standard alphabet the legacy links
// used, tolerating a missing pad, the URL-safe alphabet, or a '+' that a
// query string turned into a space.
func decodeStdBase64(token string) ([]byte, error) {
	if unescaped, err := url.PathUnescape(token); err == nil {
		token = unescaped
	}
	token = strings.NewReplacer("-", "+", "_", "/", " ", "+").Replace(token)
	token = strings.TrimRight(token, "=")
	return base64.RawStdEncoding.DecodeString(token)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *float64) {
	if src != nil && !math.IsNaN(*src) && !math.IsInf(*src, 0) {
		*dst = int(math.Round(*src))
	}
}

func checkFinite(s scenario.Scenario) error {
	for i, f := range fields(&s) {
		if v, ok := f.(*float64); ok && !mathutil.IsFinite(*v) {
			return malformed("field %d is not a finite number", i+1)
		}
	}
	return nil
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedToken, fmt.Sprintf(format, args...))
}
