// Package quote implements the placeholder pricing formula: a pure function
// of volume, material, process and quantity with fixed setup and handling
// fees. No state, no I/O.
package quote

import (
	"math"
	"sort"

	"github.com/samber/lo"
)

// Per-cm³ material costs in USD.
var materialCosts = map[string]float64{
	"pla":   0.05,
	"abs":   0.07,
	"petg":  0.08,
	"nylon": 0.12,
	"resin": 0.15,
}

// Manufacturing process cost multipliers.
var processMultipliers = map[string]float64{
	"fdm":  1.0,
	"sla":  1.5,
	"dmls": 3.0,
	"mjf":  2.0,
}

const (
	defaultMaterialCost      = 0.1
	defaultProcessMultiplier = 1.0

	setupFee    = 10.0
	handlingFee = 5.0

	currency              = "USD"
	estimatedDeliveryDays = 7
)

// Params are the inputs to a quote calculation.
type Params struct {
	Volume      float64 `json:"volume" validate:"required,gt=0"`
	SurfaceArea float64 `json:"surface_area" validate:"gte=0"`
	Material    string  `json:"material" validate:"required"`
	Process     string  `json:"process" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gte=1"`
}

// Quote is the cost breakdown returned to the caller.
type Quote struct {
	MaterialCost          float64 `json:"material_cost"`
	ProcessCost           float64 `json:"process_cost"`
	SetupFee              float64 `json:"setup_fee"`
	HandlingFee           float64 `json:"handling_fee"`
	Subtotal              float64 `json:"subtotal"`
	Total                 float64 `json:"total"`
	Quantity              int     `json:"quantity"`
	Currency              string  `json:"currency"`
	EstimatedDeliveryDays int     `json:"estimated_delivery_days"`
}

// Calculate prices a part. Unknown materials and processes fall back to
// conservative defaults rather than failing: the quote is an estimate, and
// the catalog lives in the frontend.
func Calculate(p Params) Quote {
	materialCost, ok := materialCosts[p.Material]
	if !ok {
		materialCost = defaultMaterialCost
	}

	multiplier, ok := processMultipliers[p.Process]
	if !ok {
		multiplier = defaultProcessMultiplier
	}

	baseCost := p.Volume * materialCost
	processCost := baseCost * multiplier
	subtotal := processCost * float64(p.Quantity)
	total := subtotal + setupFee + handlingFee

	return Quote{
		MaterialCost:          round2(baseCost),
		ProcessCost:           round2(processCost),
		SetupFee:              setupFee,
		HandlingFee:           handlingFee,
		Subtotal:              round2(subtotal),
		Total:                 round2(total),
		Quantity:              p.Quantity,
		Currency:              currency,
		EstimatedDeliveryDays: estimatedDeliveryDays,
	}
}

// Materials lists the known material ids in sorted order.
func Materials() []string {
	ids := lo.Keys(materialCosts)
	sort.Strings(ids)
	return ids
}

// Processes lists the known process ids in sorted order.
func Processes() []string {
	ids := lo.Keys(processMultipliers)
	sort.Strings(ids)
	return ids
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
