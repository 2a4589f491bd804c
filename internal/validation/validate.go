// Package validation checks sale payloads against the sales schema and its business rules.
// Validate is pure: it never touches a store or a metric.
package validation

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"

	"sales-pipeline/internal/pipeline"
)

// totalTolerance is the slack allowed between total_price and quantity * unit_price.
const totalTolerance = 0.01

// ValidationError is one human-readable failure with its category.
type ValidationError struct {
	Kind    pipeline.Kind
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// Result is the outcome of validating one payload. Sale is set only when Errors is empty.
type Result struct {
	SchemaType string
	Sale       *SaleFact
	SaleDate   time.Time
	Errors     []ValidationError
	Warnings   []string
}

// Valid reports whether the payload passed every check.
func (r *Result) Valid() bool { return len(r.Errors) == 0 }

// Messages returns the error messages in report order.
func (r *Result) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// Kind returns the category of the first error, or "" when valid.
func (r *Result) Kind() pipeline.Kind {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Kind
}

// Validate checks payload against schemaType. The error return is reserved for payloads that
// cannot be decoded at all (wrapping pipeline.ErrUnhandledParse).
// Only "sales" has rules; any other schema type passes once the payload is JSON.
// Structural errors are all reported, in field order, then forbidden properties by name.
// The datetime and business-rule checks only run on a structurally valid payload.
func Validate(schemaType string, payload []byte) (*Result, error) {
	if schemaType != pipeline.SchemaSales {
		if err := checkJSON(payload); err != nil {
			return nil, err
		}
		return &Result{SchemaType: schemaType, Warnings: []string{}}, nil
	}
	d, err := decodeSale(payload)
	if err != nil {
		return nil, err
	}

	res := &Result{SchemaType: schemaType, Warnings: []string{}}
	if d.notObject != nil {
		res.addSchema(d.notObject)
		return res, nil
	}

	formats := strfmt.Default
	for _, f := range saleFactFields {
		if terr, ok := d.typeErrs[f.name]; ok {
			res.addSchema(terr)
			continue
		}
		if err := f.validate(d.sale, formats); err != nil {
			res.addSchema(err)
		}
	}
	for _, err := range d.forbidden {
		res.addSchema(err)
	}
	if !res.Valid() {
		return res, nil
	}

	saleDate, err := parseSaleDate(swag.StringValue(d.sale.SaleDate))
	if err != nil {
		res.Errors = append(res.Errors, ValidationError{
			Kind:    pipeline.KindData,
			Message: "Data validation error: " + err.Error(),
		})
		return res, nil
	}

	if err := checkTotal(d.sale); err != nil {
		res.Errors = append(res.Errors, ValidationError{
			Kind:    pipeline.KindBusiness,
			Message: "Business rule validation error: " + err.Error(),
		})
		return res, nil
	}

	res.Sale = d.sale
	res.SaleDate = saleDate
	return res, nil
}

func (r *Result) addSchema(err error) {
	r.Errors = append(r.Errors, ValidationError{
		Kind:    pipeline.KindSchema,
		Message: "Schema validation error: " + err.Error(),
	})
}

// parseSaleDate accepts RFC 3339 and ISO 8601 datetimes with or without a zone, and plain dates.
func parseSaleDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, fmt.Errorf("sale_date: input should be a valid datetime, got %q", s)
	}
	if dt, err := strfmt.ParseDateTime(s); err == nil {
		return time.Time(dt), nil
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("sale_date: input should be a valid datetime, got %q", s)
}

func checkTotal(m *SaleFact) error {
	total := swag.Float64Value(m.TotalPrice)
	quantity, _ := new(big.Float).SetInt(m.Quantity).Float64()
	expected := quantity * swag.Float64Value(m.UnitPrice)
	if math.Abs(total-expected) > totalTolerance {
		return fmt.Errorf("Total price %s doesn't match quantity * unit_price (%s)", formatAmount(total), formatAmount(expected))
	}
	return nil
}

// formatAmount prints the shortest decimal that round-trips, keeping a ".0" on whole numbers.
func formatAmount(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
