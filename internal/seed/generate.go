// Package seed generates synthetic sale payloads for local runs and demos.
package seed

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var itemNames = []string{
	"Hat", "Scarf", "Gloves", "Jacket", "Boots", "Socks", "Belt", "Wallet", "Umbrella", "Backpack",
	"Sweater", "Shirt", "Jeans", "Sneakers", "Watch", "Sunglasses", "Mug", "Lamp", "Pillow", "Blanket",
}

// Sale is the payload shape the validator accepts.
type Sale struct {
	SaleID     string  `json:"sale_id"`
	SaleDate   string  `json:"sale_date"`
	CustomerID int     `json:"customer_id"`
	ItemID     int     `json:"item_id"`
	ItemName   string  `json:"item_name,omitempty"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
}

// Defect names the way an invalid sale is broken.
type Defect string

const (
	DefectNone            Defect = ""
	DefectMissingItemName Defect = "missing_item_name"
	DefectTotalMismatch   Defect = "total_mismatch"
	DefectBadSaleID       Defect = "bad_sale_id"
	DefectZeroQuantity    Defect = "zero_quantity"
)

var defects = []Defect{DefectMissingItemName, DefectTotalMismatch, DefectBadSaleID, DefectZeroQuantity}

// Generator produces sales numbered S1000, S1001, ...
type Generator struct {
	rng          *rand.Rand
	invalidRatio float64
	now          time.Time
	next         int
}

// NewGenerator returns a generator. invalidRatio in [0,1] is the share of sales broken on purpose.
func NewGenerator(seed int64, invalidRatio float64, now time.Time) *Generator {
	return &Generator{
		rng:          rand.New(rand.NewSource(seed)),
		invalidRatio: math.Max(0, math.Min(1, invalidRatio)),
		now:          now.UTC(),
	}
}

// Next returns the next sale and the defect applied to it, if any.
func (g *Generator) Next() (*Sale, Defect) {
	i := g.next
	g.next++

	qty := 1 + g.rng.Intn(5)
	unit := float64(g.rng.Intn(100)) + 0.99
	s := &Sale{
		SaleID:     fmt.Sprintf("S%d", 1000+i),
		SaleDate:   g.now.Add(-time.Duration(g.rng.Intn(60*24*90)) * time.Minute).Format("2006-01-02T15:04:05"),
		CustomerID: 1 + g.rng.Intn(200),
		ItemID:     1 + g.rng.Intn(50),
		ItemName:   itemNames[g.rng.Intn(len(itemNames))],
		Quantity:   qty,
		UnitPrice:  unit,
		TotalPrice: roundCents(float64(qty) * unit),
	}

	if g.rng.Float64() >= g.invalidRatio {
		return s, DefectNone
	}
	d := defects[g.rng.Intn(len(defects))]
	switch d {
	case DefectMissingItemName:
		s.ItemName = ""
	case DefectTotalMismatch:
		s.TotalPrice = roundCents(s.TotalPrice + 10 + float64(g.rng.Intn(50)))
	case DefectBadSaleID:
		s.SaleID = fmt.Sprintf("X-%d", 1000+i)
	case DefectZeroQuantity:
		s.Quantity = 0
	}
	return s, d
}

// Payload returns the JSON encoding of the next sale.
func (g *Generator) Payload() (json.RawMessage, Defect, error) {
	s, d := g.Next()
	b, err := json.Marshal(s)
	return b, d, err
}

func roundCents(f float64) float64 {
	return math.Round(f*100) / 100
}
