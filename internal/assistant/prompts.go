package assistant

import (
	"fmt"
	"strings"

	"github.com/brushline/quotedesk/internal/learning"
	"github.com/brushline/quotedesk/internal/models"
	"github.com/samber/lo"
)

// ReadyMarker ends an assistant reply once the intake is complete.
const ReadyMarker = "[READY_FOR_QUOTE]"

var topicQuestions = map[Topic]string{
	TopicClient:       "Let's start with the basics: what's the client's name and the job address?",
	TopicScope:        "Which rooms or surfaces are we painting? Walls, ceilings, trim, doors?",
	TopicMeasurements: "Roughly how big is the area? Square footage works, or wall length and ceiling height.",
	TopicPaint:        "What paint are you planning on? A brand and quality level is enough.",
	TopicLabor:        "How do you want to charge labor, hourly or per square foot, and at what rate?",
}

const rephrase = "Sorry, I didn't catch that. Anything else I should know before I draft the quote?"

func conversationSystem(co Company) string {
	name := co.Name
	if name == "" {
		name = "a painting contractor"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You help %s put together a painting quote by chatting with the contractor.\n", name)
	b.WriteString("Ask exactly one short question per reply. Cover topics in this order: ")
	b.WriteString("client name and address, scope and surfaces, measurements, paint brand and quality, labor rate and timeline.\n")
	b.WriteString("Never compute prices. If the contractor corrects an earlier value, use the latest one.\n")
	b.WriteString("When you know the client name, scope, approximate measurements and paint quality, ")
	fmt.Fprintf(&b, "say you have enough to draft the quote and end the reply with %s.\n", ReadyMarker)
	if hints := profileHints(co.Profile); hints != "" {
		b.WriteString("What this contractor usually does: ")
		b.WriteString(hints)
		b.WriteString("\n")
	}
	return b.String()
}

func profileHints(p *models.LearningProfile) string {
	if p == nil {
		return ""
	}
	var parts []string
	if len(p.PreferredBrands) > 0 {
		parts = append(parts, "brands "+strings.Join(p.PreferredBrands, ", "))
	}
	if m, ok := learning.Markup(p); ok {
		parts = append(parts, fmt.Sprintf("markup about %.0f%%", m))
	}
	if len(p.CommonProjectTypes) > 0 {
		parts = append(parts, "mostly "+strings.Join(p.CommonProjectTypes, ", ")+" work")
	}
	return strings.Join(parts, "; ")
}

func conversationPrompt(history []models.ConversationMessage, message string, missing []Topic) string {
	var b strings.Builder
	b.WriteString(renderTranscript(history))
	if message != "" {
		fmt.Fprintf(&b, "contractor: %s\n", message)
	} else if len(history) == 0 {
		b.WriteString("(the contractor just opened the chat; greet them and ask the first question)\n")
	}
	if len(missing) > 0 {
		b.WriteString("\nStill unknown: ")
		b.WriteString(strings.Join(lo.Map(missing, func(t Topic, _ int) string { return string(t) }), ", "))
		b.WriteString("\n")
	}
	b.WriteString("\nassistant:")
	return b.String()
}

func renderTranscript(history []models.ConversationMessage) string {
	var b strings.Builder
	for _, m := range history {
		who := "contractor"
		if m.Role == models.RoleAssistantMessage {
			who = "assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, strings.TrimSpace(m.Content))
	}
	return b.String()
}

const extractionSystem = `You turn a painting quote conversation into JSON.
Output one JSON object and nothing else, with this shape:
{"client_name": string, "address": string, "date": "YYYY-MM-DD" or "",
 "rooms": [{"name": string, "wall_sqft": number, "wall_linear_feet": number, "wall_height_feet": number,
   "ceiling_sqft": number, "floor_sqft": number, "trim_linear_feet": number, "doors_count": number, "windows_count": number}],
 "materials": {"primer"|"wall_paint"|"ceiling_paint"|"trim_paint"|"floor_sealer":
   {"brand": string, "product": string, "cost_per_gallon": number or null, "coverage_per_gallon": number or null}},
 "labor": {"rate_type": "hourly"|"sqft", "rate_amount": number or null, "estimated_hours": number},
 "overhead": {"items": [{"description": string, "amount": number}], "percentage": number or null},
 "markup_percentage": number or null, "scope_notes": string, "validity_days": number or null}
Rules: use only what the contractor said. Use null for anything not stated. Use 0 when the contractor says there is none.
When a value is corrected later in the conversation, use the last value mentioned.
If only wall length and height are given, fill wall_linear_feet and wall_height_feet and leave wall_sqft 0.
Do not compute gallons, costs or totals.`

const strictRetry = "Your previous answer was not valid JSON. Reply with the JSON object only: no prose, no code fences, no comments."

func extractionPrompt(history []models.ConversationMessage) string {
	return "Conversation:\n" + renderTranscript(history) + "\nJSON:"
}
