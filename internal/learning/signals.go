// Package learning mines conversations for a contractor's pricing habits and
// folds them into the company's learning profile.
package learning

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/samber/lo"
)

// knownBrands maps lowercase spellings to the canonical brand name.
var knownBrands = map[string]string{
	"sherwin williams": "Sherwin Williams",
	"sherwin-williams": "Sherwin Williams",
	"benjamin moore":   "Benjamin Moore",
	"behr":             "Behr",
	"ppg":              "PPG",
	"valspar":          "Valspar",
	"dunn-edwards":     "Dunn-Edwards",
	"dunn edwards":     "Dunn-Edwards",
	"kelly-moore":      "Kelly-Moore",
	"kelly moore":      "Kelly-Moore",
	"glidden":          "Glidden",
	"farrow & ball":    "Farrow & Ball",
	"farrow and ball":  "Farrow & Ball",
	"zinsser":          "Zinsser",
	"kilz":             "Kilz",
	"rust-oleum":       "Rust-Oleum",
	"rustoleum":        "Rust-Oleum",
}

// knownProductLines maps product lines to their brand.
var knownProductLines = map[string]string{
	"emerald":         "Sherwin Williams",
	"superpaint":      "Sherwin Williams",
	"cashmere":        "Sherwin Williams",
	"promar 200":      "Sherwin Williams",
	"regal select":    "Benjamin Moore",
	"aura":            "Benjamin Moore",
	"marquee":         "Behr",
	"dynasty":         "Behr",
	"speedhide":       "PPG",
	"bulls eye 1-2-3": "Zinsser",
}

var projectTypeKeywords = map[string][]string{
	"interior":       {"interior", "inside", "bedroom", "living room", "kitchen", "bathroom", "hallway"},
	"exterior":       {"exterior", "outside", "siding", "stucco", "facade"},
	"cabinets":       {"cabinet", "cabinets"},
	"deck":           {"deck", "decking", "porch"},
	"fence":          {"fence", "fencing"},
	"commercial":     {"commercial", "office", "warehouse", "retail", "storefront"},
	"residential":    {"house", "home", "residential", "condo", "apartment"},
	"drywall repair": {"drywall", "patching", "patch work"},
}

const num = `\$?\s*(\d+(?:,\d{3})*(?:\.\d+)?)`

var (
	perGallonRe = regexp.MustCompile(`(?i)` + num + `\s*(?:/|per|a|an)\s*(?:gal\b|gallon)`)
	perSqftRe   = regexp.MustCompile(`(?i)` + num + `\s*(?:/|per|a)\s*(?:sq\.?\s*ft|sqft|square\s+f(?:oo|ee)t|sf\b)`)
	hourlyRe    = regexp.MustCompile(`(?i)` + num + `\s*(?:/|per|an|a)\s*(?:hr\b|hour)`)
	markupRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:%|percent)\s*(?:markup|mark-up|mark up|margin|profit)`),
		regexp.MustCompile(`(?i)(?:markup|mark-up|mark up|margin|profit)\s*(?:of|is|at|to|=|:)?\s*(\d+(?:\.\d+)?)\s*(?:%|percent)`),
	}
	timelineRe = regexp.MustCompile(`(?i)\b(\d+|one|two|three|four|five|six|seven|eight|nine|ten)\s*(?:-\s*\d+\s*)?(day|week|month)s?\b`)
	surfaceRe  = regexp.MustCompile(`(?i)\b(walls?|ceilings?|trim|doors?|cabinets?|floors?|siding|deck)\b`)
)

// ExtractSignals finds brands, products, rates, markup, project types and
// timelines in free text. It never fails; unknown text yields empty data.
func ExtractSignals(text string) models.LearningData {
	var data models.LearningData
	if strings.TrimSpace(text) == "" {
		return data
	}
	lower := strings.ToLower(text)

	for spelling, brand := range knownBrands {
		if containsWord(lower, spelling) {
			data.Brands = append(data.Brands, brand)
		}
	}

	for _, loc := range perGallonRe.FindAllStringSubmatchIndex(text, -1) {
		cost, ok := parseAmount(text[loc[2]:loc[3]])
		if !ok {
			continue
		}
		window := lower[max(0, loc[0]-80):loc[0]]
		data.Products = append(data.Products, productNear(window, cost))
	}
	// product lines mentioned without a price still count toward frequency
	for line, brand := range knownProductLines {
		if containsWord(lower, line) && !lo.ContainsBy(data.Products, func(p models.ProductSignal) bool {
			return strings.EqualFold(p.Name, titleCase(line))
		}) {
			data.Products = append(data.Products, models.ProductSignal{Name: titleCase(line), Brand: brand})
			data.Brands = append(data.Brands, brand)
		}
	}

	rates := map[string]float64{}
	for _, loc := range perSqftRe.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := parseAmount(text[loc[2]:loc[3]]); ok {
			rates[surfaceNear(lower, loc[0])+"_sqft"] = v
		}
	}
	for _, loc := range hourlyRe.FindAllStringSubmatchIndex(text, -1) {
		if v, ok := parseAmount(text[loc[2]:loc[3]]); ok {
			rates["labor_hourly"] = v
		}
	}
	if len(rates) > 0 {
		data.Rates = rates
	}

	// last stated markup wins
	lastPos := -1
	for _, re := range markupRes {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if v, err := strconv.ParseFloat(text[m[2]:m[3]], 64); err == nil && v >= 0 && v <= 500 && m[0] > lastPos {
				lastPos = m[0]
				pct := v
				data.MarkupPercentage = &pct
			}
		}
	}

	for typ, words := range projectTypeKeywords {
		if lo.SomeBy(words, func(w string) bool { return containsWord(lower, w) }) {
			data.ProjectTypes = append(data.ProjectTypes, typ)
		}
	}

	for _, m := range timelineRe.FindAllStringSubmatch(lower, -1) {
		data.Timelines = append(data.Timelines, strings.TrimSpace(m[0]))
	}

	data.Brands = sortedUniq(data.Brands)
	data.ProjectTypes = sortedUniq(data.ProjectTypes)
	data.Timelines = lo.Uniq(data.Timelines)
	return data
}

func productNear(window string, cost float64) models.ProductSignal {
	sig := models.ProductSignal{CostPerGallon: cost}
	best := -1
	for spelling, brand := range knownBrands {
		if i := strings.LastIndex(window, spelling); i > best {
			best = i
			sig.Brand = brand
		}
	}
	bestLine := -1
	for line, brand := range knownProductLines {
		if i := strings.LastIndex(window, line); i > bestLine {
			bestLine = i
			sig.Name = titleCase(line)
			if sig.Brand == "" {
				sig.Brand = brand
			}
		}
	}
	for _, sheen := range []string{"flat", "matte", "eggshell", "satin", "semi-gloss", "gloss"} {
		if containsWord(window, sheen) {
			sig.Name = strings.TrimSpace(sig.Name + " " + titleCase(sheen))
			break
		}
	}
	if sig.Name == "" {
		sig.Name = sig.Brand
	}
	if sig.Name == "" {
		sig.Name = "Unspecified paint"
	}
	return sig
}

func surfaceNear(lower string, pos int) string {
	window := lower[max(0, pos-60):min(len(lower), pos+60)]
	if m := surfaceRe.FindString(window); m != "" {
		s := strings.TrimSuffix(m, "s")
		switch s {
		case "wall":
			return "walls"
		case "ceiling":
			return "ceilings"
		case "floor":
			return "floors"
		}
		return s
	}
	return "general"
}

func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	return v, err == nil && v >= 0
}

func containsWord(haystack, word string) bool {
	for start := 0; ; {
		i := strings.Index(haystack[start:], word)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(word)
		before := i == 0 || !isWordByte(haystack[i-1])
		after := end == len(haystack) || !isWordByte(haystack[end])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func sortedUniq(in []string) []string {
	out := lo.Uniq(in)
	sort.Strings(out)
	return out
}
