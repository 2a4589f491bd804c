package validation

import (
	"math/big"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// SaleFact is one sale line as produced by the point-of-sale feeds.
// Fields are pointers so a missing property can be told apart from a zero value.
// Integer fields are arbitrary precision; the feeds do not bound their ids.
type SaleFact struct {

	// Unique sale reference, "S" followed by digits.
	// Required: true
	// Pattern: ^S[0-9]+$
	SaleID *string `json:"sale_id"`

	// When the sale happened. Checked as a datetime after the structure is valid.
	// Required: true
	SaleDate *string `json:"sale_date"`

	// Required: true
	// Minimum: 1
	CustomerID *big.Int `json:"customer_id"`

	// Required: true
	// Minimum: 1
	ItemID *big.Int `json:"item_id"`

	// Required: true
	// Min Length: 1
	ItemName *string `json:"item_name"`

	// Required: true
	// Minimum: 1
	Quantity *big.Int `json:"quantity"`

	// Required: true
	// Minimum: 0.01
	UnitPrice *float64 `json:"unit_price"`

	// Must equal quantity * unit_price within 0.01.
	// Required: true
	// Minimum: 0.01
	TotalPrice *float64 `json:"total_price"`
}

const saleIDPattern = `^S[0-9]+$`

// saleFactFields lists the properties in the order errors are reported.
var saleFactFields = []struct {
	name     string
	validate func(m *SaleFact, formats strfmt.Registry) error
}{
	{"sale_id", (*SaleFact).validateSaleID},
	{"sale_date", (*SaleFact).validateSaleDate},
	{"customer_id", (*SaleFact).validateCustomerID},
	{"item_id", (*SaleFact).validateItemID},
	{"item_name", (*SaleFact).validateItemName},
	{"quantity", (*SaleFact).validateQuantity},
	{"unit_price", (*SaleFact).validateUnitPrice},
	{"total_price", (*SaleFact).validateTotalPrice},
}

// Validate validates this sale fact
func (m *SaleFact) Validate(formats strfmt.Registry) error {
	var res []error

	for _, f := range saleFactFields {
		if err := f.validate(m, formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (m *SaleFact) validateSaleID(formats strfmt.Registry) error {

	if err := validate.Required("sale_id", "body", m.SaleID); err != nil {
		return err
	}

	if err := validate.Pattern("sale_id", "body", *m.SaleID, saleIDPattern); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateSaleDate(formats strfmt.Registry) error {

	if err := validate.Required("sale_date", "body", m.SaleDate); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateCustomerID(formats strfmt.Registry) error {

	if err := validate.Required("customer_id", "body", m.CustomerID); err != nil {
		return err
	}

	if err := minimumInt("customer_id", m.CustomerID, 1); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateItemID(formats strfmt.Registry) error {

	if err := validate.Required("item_id", "body", m.ItemID); err != nil {
		return err
	}

	if err := minimumInt("item_id", m.ItemID, 1); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateItemName(formats strfmt.Registry) error {

	if err := validate.Required("item_name", "body", m.ItemName); err != nil {
		return err
	}

	if err := validate.MinLength("item_name", "body", *m.ItemName, 1); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateQuantity(formats strfmt.Registry) error {

	if err := validate.Required("quantity", "body", m.Quantity); err != nil {
		return err
	}

	if err := minimumInt("quantity", m.Quantity, 1); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateUnitPrice(formats strfmt.Registry) error {

	if err := validate.Required("unit_price", "body", m.UnitPrice); err != nil {
		return err
	}

	if err := validate.Minimum("unit_price", "body", *m.UnitPrice, 0.01, false); err != nil {
		return err
	}

	return nil
}

func (m *SaleFact) validateTotalPrice(formats strfmt.Registry) error {

	if err := validate.Required("total_price", "body", m.TotalPrice); err != nil {
		return err
	}

	if err := validate.Minimum("total_price", "body", *m.TotalPrice, 0.01, false); err != nil {
		return err
	}

	return nil
}

// minimumInt checks v >= minimum for integers outside the int64 range too.
func minimumInt(path string, v *big.Int, minimum int64) error {
	if v.IsInt64() {
		if err := validate.MinimumInt(path, "body", v.Int64(), minimum, false); err != nil {
			return err
		}
		return nil
	}
	if v.Sign() < 0 {
		return errors.ExceedsMinimumInt(path, "body", minimum, false, v.String())
	}
	return nil
}
