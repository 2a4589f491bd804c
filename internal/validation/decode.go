package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/swag"

	"sales-pipeline/internal/pipeline"
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInteger
	kindNumber
)

var saleFactKinds = map[string]fieldKind{
	"sale_id":     kindString,
	"sale_date":   kindString,
	"customer_id": kindInteger,
	"item_id":     kindInteger,
	"item_name":   kindString,
	"quantity":    kindInteger,
	"unit_price":  kindNumber,
	"total_price": kindNumber,
}

var kindNames = map[fieldKind]string{
	kindString:  "string",
	kindInteger: "integer",
	kindNumber:  "number",
}

// decoded is a payload split into a typed SaleFact plus the structural errors found while typing it.
type decoded struct {
	sale      *SaleFact
	typeErrs  map[string]error
	forbidden []error
	notObject error
}

// checkJSON returns ErrUnhandledParse when payload is empty, not JSON, or null.
func checkJSON(payload []byte) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return fmt.Errorf("%w: empty payload", pipeline.ErrUnhandledParse)
	}
	if !json.Valid(trimmed) {
		return fmt.Errorf("%w: payload is not valid JSON", pipeline.ErrUnhandledParse)
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("%w: payload is null", pipeline.ErrUnhandledParse)
	}
	return nil
}

// decodeSale parses payload. It returns ErrUnhandledParse when payload is not JSON at all.
func decodeSale(payload []byte) (*decoded, error) {
	if err := checkJSON(payload); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(payload)

	out := &decoded{sale: &SaleFact{}, typeErrs: map[string]error{}}
	if trimmed[0] != '{' {
		out.notObject = errors.InvalidType("sale", "body", "object", string(trimmed))
		return out, nil
	}

	var props map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &props); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrUnhandledParse, err)
	}

	var extra []string
	for name, raw := range props {
		kind, known := saleFactKinds[name]
		if !known {
			extra = append(extra, name)
			continue
		}
		if err := out.assign(name, kind, raw); err != nil {
			out.typeErrs[name] = err
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		out.forbidden = append(out.forbidden, errors.PropertyNotAllowed("sale", "body", name))
	}
	return out, nil
}

func (d *decoded) assign(name string, kind fieldKind, raw json.RawMessage) error {
	typeErr := func() error {
		return errors.InvalidType(name, "body", kindNames[kind], string(raw))
	}
	switch kind {
	case kindString:
		var s string
		if raw[0] != '"' || json.Unmarshal(raw, &s) != nil {
			return typeErr()
		}
		switch name {
		case "sale_id":
			d.sale.SaleID = swag.String(s)
		case "sale_date":
			d.sale.SaleDate = swag.String(s)
		case "item_name":
			d.sale.ItemName = swag.String(s)
		}
	case kindInteger:
		n, ok := parseInteger(raw)
		if !ok {
			return typeErr()
		}
		switch name {
		case "customer_id":
			d.sale.CustomerID = n
		case "item_id":
			d.sale.ItemID = n
		case "quantity":
			d.sale.Quantity = n
		}
	case kindNumber:
		f, ok := parseNumber(raw)
		if !ok {
			return typeErr()
		}
		switch name {
		case "unit_price":
			d.sale.UnitPrice = swag.Float64(f)
		case "total_price":
			d.sale.TotalPrice = swag.Float64(f)
		}
	}
	return nil
}

// parseNumber accepts any JSON number literal.
func parseNumber(raw json.RawMessage) (float64, bool) {
	var n json.Number
	if !isNumberLiteral(raw) || json.Unmarshal(raw, &n) != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseInteger accepts JSON numbers with no fractional part, so 5 and 5.0 are both integers.
// Plain digit literals are exact at any size. Literals with a fraction or exponent are read as
// float64 first, so 1e19 is an integer and 1e400 is not a number at all.
func parseInteger(raw json.RawMessage) (*big.Int, bool) {
	var n json.Number
	if !isNumberLiteral(raw) || json.Unmarshal(raw, &n) != nil {
		return nil, false
	}
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, ok := new(big.Int).SetString(s, 10)
		return i, ok
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return nil, false
	}
	i, _ := big.NewFloat(f).Int(nil)
	return i, true
}

func isNumberLiteral(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}
