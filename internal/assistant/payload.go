package assistant

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/brushline/quotedesk/internal/learning"
	"github.com/brushline/quotedesk/internal/models"
)

// extractedPayload mirrors the JSON the backend is asked for. Pointers
// distinguish "not stated" from an explicit zero.
type extractedPayload struct {
	ClientName       string                       `json:"client_name"`
	Address          string                       `json:"address"`
	Date             string                       `json:"date"`
	Rooms            []extractedRoom              `json:"rooms"`
	Materials        map[string]extractedMaterial `json:"materials"`
	Labor            extractedLabor               `json:"labor"`
	Overhead         extractedOverhead            `json:"overhead"`
	MarkupPercentage *float64                     `json:"markup_percentage"`
	ScopeNotes       string                       `json:"scope_notes"`
	ValidityDays     *int                         `json:"validity_days"`
}

// Counts are floats because models happily emit 2.0 for a door count.
type extractedRoom struct {
	Name           string  `json:"name"`
	WallSqft       float64 `json:"wall_sqft"`
	WallLinearFeet float64 `json:"wall_linear_feet"`
	WallHeightFeet float64 `json:"wall_height_feet"`
	CeilingSqft    float64 `json:"ceiling_sqft"`
	FloorSqft      float64 `json:"floor_sqft"`
	TrimLinearFeet float64 `json:"trim_linear_feet"`
	DoorsCount     float64 `json:"doors_count"`
	WindowsCount   float64 `json:"windows_count"`
}

type extractedMaterial struct {
	Brand             string   `json:"brand"`
	Product           string   `json:"product"`
	CostPerGallon     *float64 `json:"cost_per_gallon"`
	CoveragePerGallon *float64 `json:"coverage_per_gallon"`
}

type extractedLabor struct {
	RateType       string   `json:"rate_type"`
	RateAmount     *float64 `json:"rate_amount"`
	EstimatedHours float64  `json:"estimated_hours"`
}

type extractedOverhead struct {
	Items      []models.OverheadItem `json:"items"`
	Percentage *float64              `json:"percentage"`
}

func (r extractedRoom) toRoom() models.Room {
	room := models.Room{
		Name:           strings.TrimSpace(r.Name),
		WallSqft:       r.WallSqft,
		CeilingSqft:    r.CeilingSqft,
		FloorSqft:      r.FloorSqft,
		TrimLinearFeet: r.TrimLinearFeet,
		DoorsCount:     int(math.Round(r.DoorsCount)),
		WindowsCount:   int(math.Round(r.WindowsCount)),
	}
	if room.WallSqft == 0 && r.WallLinearFeet > 0 && r.WallHeightFeet > 0 {
		room.WallSqft = r.WallLinearFeet * r.WallHeightFeet
	}
	return room
}

// parsePayload accepts a bare object or one wrapped in prose or code fences.
func parsePayload(out string) (extractedPayload, error) {
	var p extractedPayload
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return p, errNoJSON
	}
	if err := json.Unmarshal([]byte(out[start:end+1]), &p); err != nil {
		return extractedPayload{}, err
	}
	return p, nil
}

var categoryAliases = map[string]models.MaterialCategory{
	"primer":        models.MaterialPrimer,
	"wall_paint":    models.MaterialWallPaint,
	"walls":         models.MaterialWallPaint,
	"wall":          models.MaterialWallPaint,
	"paint":         models.MaterialWallPaint,
	"ceiling_paint": models.MaterialCeilingPaint,
	"ceiling":       models.MaterialCeilingPaint,
	"ceilings":      models.MaterialCeilingPaint,
	"trim_paint":    models.MaterialTrimPaint,
	"trim":          models.MaterialTrimPaint,
	"floor_sealer":  models.MaterialFloorSealer,
	"floor":         models.MaterialFloorSealer,
	"sealer":        models.MaterialFloorSealer,
}

func normalizeCategory(key string) (models.MaterialCategory, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.NewReplacer(" ", "_", "-", "_").Replace(k)
	c, ok := categoryAliases[k]
	return c, ok
}

// heuristicPayload is the partial record used when the backend output is
// unusable. Turns are scanned in order so later statements win.
func heuristicPayload(transcript []models.ConversationMessage) extractedPayload {
	p := extractedPayload{Materials: map[string]extractedMaterial{}}
	p.ClientName = Review(transcript).ClientName

	for _, m := range transcript {
		if m.Role != models.RoleUserMessage {
			continue
		}
		data := learning.ExtractSignals(m.Content)
		if data.MarkupPercentage != nil {
			v := *data.MarkupPercentage
			p.MarkupPercentage = &v
		}
		for _, prod := range data.Products {
			if prod.CostPerGallon <= 0 {
				continue
			}
			cost := prod.CostPerGallon
			p.Materials[string(models.MaterialWallPaint)] = extractedMaterial{Brand: prod.Brand, Product: prod.Name, CostPerGallon: &cost}
		}
		if v, ok := data.Rates["labor_hourly"]; ok {
			rate := v
			p.Labor = extractedLabor{RateType: string(models.RateHourly), RateAmount: &rate}
		}
		for _, key := range []string{"general_sqft", "walls_sqft"} {
			if v, ok := data.Rates[key]; ok {
				rate := v
				p.Labor = extractedLabor{RateType: string(models.RateSqft), RateAmount: &rate}
			}
		}
	}
	return p
}
