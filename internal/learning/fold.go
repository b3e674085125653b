package learning

import (
	"sort"
	"strings"
	"time"

	"github.com/brushline/quotedesk/internal/models"
	"github.com/lib/pq"
	"github.com/samber/lo"
	"gorm.io/datatypes"
)

const (
	MaxConfidence = 100.0
	// confidence gained per analyzed conversation with and without signals
	confidenceStep      = 10.0
	confidenceStepEmpty = 2.0
)

// Fold returns a new profile with data merged in. Costs, rates and markup are
// running averages; brands and project types are sets; products count how
// often they come up. The input profile is not modified.
func Fold(in *models.LearningProfile, data models.LearningData, now time.Time) *models.LearningProfile {
	out := copyProfile(in)

	out.PreferredBrands = pq.StringArray(sortedUniq(append([]string(out.PreferredBrands), data.Brands...)))
	out.CommonProjectTypes = pq.StringArray(sortedUniq(append([]string(out.CommonProjectTypes), data.ProjectTypes...)))

	products := out.PreferredProducts.Data()
	for _, sig := range data.Products {
		idx := -1
		for i, p := range products {
			if strings.EqualFold(p.Name, sig.Name) && strings.EqualFold(p.Brand, sig.Brand) {
				idx = i
				break
			}
		}
		if idx < 0 {
			products = append(products, models.ProductStat{Name: sig.Name, Brand: sig.Brand})
			idx = len(products) - 1
		}
		p := &products[idx]
		p.Frequency++
		if sig.CostPerGallon > 0 {
			p.AverageCost, p.CostSamples = runningAverage(p.AverageCost, p.CostSamples, sig.CostPerGallon)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Frequency != products[j].Frequency {
			return products[i].Frequency > products[j].Frequency
		}
		return products[i].Name < products[j].Name
	})
	out.PreferredProducts = datatypes.NewJSONType(products)

	rates := out.AverageRates.Data()
	for key, v := range data.Rates {
		st := rates[key]
		st.Average, st.Samples = runningAverage(st.Average, st.Samples, v)
		rates[key] = st
	}
	out.AverageRates = datatypes.NewJSONType(rates)

	timelines := out.Timelines.Data()
	for _, tl := range data.Timelines {
		timelines[tl]++
	}
	out.Timelines = datatypes.NewJSONType(timelines)

	if data.MarkupPercentage != nil {
		out.PreferredMarkup, out.MarkupSamples = runningAverage(out.PreferredMarkup, out.MarkupSamples, *data.MarkupPercentage)
	}

	out.QuotesAnalyzed++
	step := confidenceStep
	if data.Empty() {
		step = confidenceStepEmpty
	}
	out.ConfidenceScore = min(MaxConfidence, out.ConfidenceScore+step)
	out.UpdatedAt = now
	return out
}

func runningAverage(avg float64, n int, v float64) (float64, int) {
	return (avg*float64(n) + v) / float64(n+1), n + 1
}

func copyProfile(in *models.LearningProfile) *models.LearningProfile {
	if in == nil {
		return models.NewLearningProfile("")
	}
	out := *in
	out.PreferredBrands = append(pq.StringArray{}, in.PreferredBrands...)
	out.CommonProjectTypes = append(pq.StringArray{}, in.CommonProjectTypes...)
	out.PreferredProducts = datatypes.NewJSONType(append([]models.ProductStat{}, in.PreferredProducts.Data()...))
	out.AverageRates = datatypes.NewJSONType(lo.Assign(map[string]models.RateStat{}, in.AverageRates.Data()))
	out.Timelines = datatypes.NewJSONType(lo.Assign(map[string]int{}, in.Timelines.Data()))
	return &out
}
