package seed

import (
	"testing"
	"time"

	"sales-pipeline/internal/pipeline"
	"sales-pipeline/internal/validation"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerator_ValidSalesPassValidation(t *testing.T) {
	g := NewGenerator(42, 0, fixedNow)
	for i := 0; i < 200; i++ {
		payload, defect, err := g.Payload()
		if err != nil {
			t.Fatalf("Payload: %v", err)
		}
		if defect != DefectNone {
			t.Fatalf("defect = %q with invalid ratio 0", defect)
		}
		res, err := validation.Validate(pipeline.SchemaSales, payload)
		if err != nil {
			t.Fatalf("Validate(%s): %v", payload, err)
		}
		if !res.Valid() {
			t.Fatalf("generated sale %s failed: %v", payload, res.Messages())
		}
	}
}

func TestGenerator_DefectsFailValidation(t *testing.T) {
	g := NewGenerator(7, 1, fixedNow)
	seen := map[Defect]bool{}
	for i := 0; i < 100; i++ {
		payload, defect, err := g.Payload()
		if err != nil {
			t.Fatalf("Payload: %v", err)
		}
		if defect == DefectNone {
			t.Fatal("every sale should be broken with invalid ratio 1")
		}
		seen[defect] = true
		res, err := validation.Validate(pipeline.SchemaSales, payload)
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid() {
			t.Errorf("sale with defect %q passed validation: %s", defect, payload)
		}
	}
	if len(seen) != len(defects) {
		t.Errorf("saw defects %v, want all %d kinds", seen, len(defects))
	}
}

func TestGenerator_Sequence(t *testing.T) {
	g := NewGenerator(1, 0, fixedNow)
	for i, want := range []string{"S1000", "S1001", "S1002"} {
		s, _ := g.Next()
		if s.SaleID != want {
			t.Errorf("sale %d id = %q, want %q", i, s.SaleID, want)
		}
		if s.CustomerID < 1 || s.CustomerID > 200 || s.ItemID < 1 || s.ItemID > 50 || s.Quantity < 1 || s.Quantity > 5 {
			t.Errorf("sale %d out of range: %+v", i, s)
		}
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a, _, _ := NewGenerator(99, 0.3, fixedNow).Payload()
	b, _, _ := NewGenerator(99, 0.3, fixedNow).Payload()
	if string(a) != string(b) {
		t.Errorf("same seed produced %s and %s", a, b)
	}
}
