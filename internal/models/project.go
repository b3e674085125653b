package models

// MaterialCategory names a paint product slot on a project.
type MaterialCategory string

const (
	MaterialPrimer       MaterialCategory = "primer"
	MaterialWallPaint    MaterialCategory = "wall_paint"
	MaterialCeilingPaint MaterialCategory = "ceiling_paint"
	MaterialTrimPaint    MaterialCategory = "trim_paint"
	MaterialFloorSealer  MaterialCategory = "floor_sealer"
)

// MaterialCategories is the canonical display order.
var MaterialCategories = []MaterialCategory{
	MaterialPrimer,
	MaterialWallPaint,
	MaterialCeilingPaint,
	MaterialTrimPaint,
	MaterialFloorSealer,
}

func (c MaterialCategory) Valid() bool {
	for _, v := range MaterialCategories {
		if v == c {
			return true
		}
	}
	return false
}

type LaborRateType string

const (
	RateHourly LaborRateType = "hourly"
	RateSqft   LaborRateType = "sqft"
)

func (t LaborRateType) Valid() bool { return t == RateHourly || t == RateSqft }

type Room struct {
	Name           string  `json:"name"`
	WallSqft       float64 `json:"wall_sqft"`
	CeilingSqft    float64 `json:"ceiling_sqft"`
	DoorsCount     int     `json:"doors_count"`
	WindowsCount   int     `json:"windows_count"`
	FloorSqft      float64 `json:"floor_sqft"`
	TrimLinearFeet float64 `json:"trim_linear_feet"`
}

// Material is one product line. Gallons and TotalCost are derived.
type Material struct {
	Brand             string  `json:"brand"`
	Product           string  `json:"product,omitempty"`
	Gallons           float64 `json:"gallons"`
	CostPerGallon     float64 `json:"cost_per_gallon"`
	CoveragePerGallon float64 `json:"coverage_per_gallon"`
	TotalCost         float64 `json:"total_cost"`
}

// Labor.TotalLaborCost is derived.
type Labor struct {
	EstimatedHours float64       `json:"estimated_hours"`
	RateType       LaborRateType `json:"rate_type"`
	RateAmount     float64       `json:"rate_amount"`
	TotalLaborCost float64       `json:"total_labor_cost"`
}

type OverheadItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// Overhead.Total is derived: the sum of the item amounts. A percentage
// overhead is priced into a fixed item when the record is drafted.
type Overhead struct {
	Items []OverheadItem `json:"items,omitempty"`
	Total float64        `json:"total"`
}

// ProjectRecord is the internal, cost-transparent quote. Subtotal,
// MarkupAmount and TotalQuote are always recomputed from the base fields.
type ProjectRecord struct {
	ClientName string `json:"client_name"`
	Address    string `json:"address"`
	Date       string `json:"date"`

	Rooms     []Room                        `json:"rooms"`
	Materials map[MaterialCategory]Material `json:"materials"`
	Labor     Labor                         `json:"labor"`
	Overhead  Overhead                      `json:"overhead"`

	Subtotal         float64 `json:"subtotal"`
	MarkupPercentage float64 `json:"markup_percentage"`
	MarkupAmount     float64 `json:"markup_amount"`
	TotalQuote       float64 `json:"total_quote"`

	ScopeNotes   string `json:"scope_notes"`
	ValidityDays int    `json:"validity_days"`
}

const DefaultValidityDays = 30

// NewProjectRecord returns the empty record a conversation starts from.
func NewProjectRecord() ProjectRecord {
	return ProjectRecord{
		Rooms:        []Room{},
		Materials:    map[MaterialCategory]Material{},
		Labor:        Labor{RateType: RateHourly},
		ValidityDays: DefaultValidityDays,
	}
}

// Clone returns a deep copy so edits never alias a stored snapshot.
func (p ProjectRecord) Clone() ProjectRecord {
	out := p
	out.Rooms = append([]Room(nil), p.Rooms...)
	out.Materials = make(map[MaterialCategory]Material, len(p.Materials))
	for k, v := range p.Materials {
		out.Materials[k] = v
	}
	out.Overhead.Items = append([]OverheadItem(nil), p.Overhead.Items...)
	return out
}
