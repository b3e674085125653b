package assistant

import (
	"regexp"
	"strings"

	"github.com/brushline/quotedesk/internal/learning"
	"github.com/brushline/quotedesk/internal/models"
	"github.com/samber/lo"
)

// Topic is one item of the intake checklist, in the order it is asked.
type Topic string

const (
	TopicClient       Topic = "client"
	TopicScope        Topic = "scope"
	TopicMeasurements Topic = "measurements"
	TopicPaint        Topic = "paint"
	TopicLabor        Topic = "labor"
)

var topicOrder = []Topic{TopicClient, TopicScope, TopicMeasurements, TopicPaint, TopicLabor}

// requiredTopics must all be covered before extraction is worthwhile.
var requiredTopics = []Topic{TopicClient, TopicScope, TopicMeasurements, TopicPaint}

var (
	clientNameRes = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:[Cc]lient|[Cc]ustomer|[Hh]omeowner|[Oo]wner)(?:'s)?\s*(?:[Nn]ame\s*)?(?:is\s+|:\s*|=\s*)?([A-Z][A-Za-z'.-]+(?:\s+[A-Z][A-Za-z'.-]+)?)`),
		regexp.MustCompile(`\b(?:[Nn]ame is|[Nn]amed|[Qq]uote for|[Jj]ob for|[Pp]roject for|[Ee]stimate for)\s+([A-Z][A-Za-z'.-]+(?:\s+[A-Z][A-Za-z'.-]+)?)`),
	}
	measurementRe = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:sq\.?\s*ft|sqft|square\s+f(?:ee|oo)t|sf\b|linear|lf\b|ft\b|feet|foot|'|x\s*\d+|by\s+\d+)`)
	scopeRe       = regexp.MustCompile(`(?i)\b(?:rooms?|bedrooms?|bathrooms?|kitchen|living\s+room|dining|hallway|hall|basement|garage|office|walls?|ceilings?|trim|baseboards?|doors?|cabinets?|exterior|interior|siding|deck|fence|floors?|house|whole\s+home)\b`)
	paintWordRe   = regexp.MustCompile(`(?i)\b(?:premium|mid[-\s]?grade|builder[-\s]?grade|contractor[-\s]?grade|standard|economy|high[-\s]?end|eggshell|satin|flat|matte|semi[-\s]?gloss|gloss|primer)\b`)
	laborRe       = regexp.MustCompile(`(?i)\b(?:hours?|hourly|per\s+hour|/hr|per\s+(?:sq|square)|days?|weeks?|crew|painters?)\b`)
	askedNameRe   = regexp.MustCompile(`(?i)\bname\b`)
)

// Checklist records which topics a transcript already covers.
type Checklist struct {
	ClientName string
	Covered    map[Topic]bool
}

// Missing lists uncovered topics in asking order.
func (c Checklist) Missing() []Topic {
	return lo.Filter(topicOrder, func(t Topic, _ int) bool { return !c.Covered[t] })
}

// Ready reports whether every required topic is covered.
func (c Checklist) Ready() bool {
	return lo.EveryBy(requiredTopics, func(t Topic) bool { return c.Covered[t] })
}

// Review scans the user turns of a transcript.
func Review(history []models.ConversationMessage) Checklist {
	c := Checklist{Covered: map[Topic]bool{}}
	var prevAssistant string
	for _, m := range history {
		if m.Role == models.RoleAssistantMessage {
			prevAssistant = m.Content
			continue
		}
		text := m.Content
		if name := findClientName(text); name != "" {
			c.ClientName = name
		} else if askedNameRe.MatchString(prevAssistant) && shortAnswer(text) {
			c.ClientName = strings.TrimSpace(strings.SplitN(text, ",", 2)[0])
		}
		if scopeRe.MatchString(text) {
			c.Covered[TopicScope] = true
		}
		if measurementRe.MatchString(text) {
			c.Covered[TopicMeasurements] = true
		}
		if paintWordRe.MatchString(text) || len(learning.ExtractSignals(text).Brands) > 0 {
			c.Covered[TopicPaint] = true
		}
		if laborRe.MatchString(text) {
			c.Covered[TopicLabor] = true
		}
	}
	c.Covered[TopicClient] = c.ClientName != ""
	return c
}

// findClientName returns the last name mentioned in text.
func findClientName(text string) string {
	name, pos := "", -1
	for _, re := range clientNameRes {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			if m[0] > pos {
				pos = m[0]
				name = text[m[2]:m[3]]
			}
		}
	}
	return strings.TrimRight(name, ".")
}

func shortAnswer(text string) bool {
	words := strings.Fields(text)
	if len(words) == 0 || len(words) > 6 {
		return false
	}
	r := []rune(words[0])
	return r[0] >= 'A' && r[0] <= 'Z'
}
