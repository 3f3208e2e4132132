package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/NimaCare/internal/genai"
	"github.com/BTreeMap/NimaCare/internal/models"
)

// Generation parameters per stage.
const (
	intakeTemperature   = 0.85
	intakeMaxTokens     = 250
	crisisTemperature   = 0.3
	crisisMaxTokens     = 400
	resourceTemperature = 0.5
	resourceMaxTokens   = 600

	// crisisHistoryWindow is how many recent messages the crisis assessment sees.
	crisisHistoryWindow = 10
	// maxPresentedCounselors caps the counselors offered by the resource stage.
	maxPresentedCounselors = 3
)

const intakeSystemPrompt = `You are Nima, a warm and empathetic mental health support assistant from NimaCare.

Your role: have a natural conversation to understand what's troubling the user.

Rules:
- Keep responses to 2 sentences maximum
- Be warm, caring, and human-like
- Ask thoughtful questions to understand their situation
- Never repeat yourself; each response must be different
- Show empathy and validate their feelings
- Never diagnose or give medical advice`

const crisisSystemPrompt = `You are a crisis assessment specialist evaluating mental health risk.

Crisis levels:
- IMMEDIATE: mentions suicide, self-harm, or harming others; needs emergency services now
- HIGH: severe distress, unable to cope, needs urgent professional help
- MODERATE: significant anxiety or depression, should see a counselor soon
- LOW: mild stress, would benefit from support
- NONE: general conversation, no crisis indicators

Be direct, clear, and compassionate.`

const resourceSystemPrompt = `You are a resource coordinator who matches people with volunteer counselors.

Present the best matches warmly but professionally. Mention each counselor by name and why they fit.
Never invent counselors that are not in the provided list.`

// Intake instructions, chosen by turn count.
const (
	intakeGreet   = "Greet them warmly and ask how they're feeling."
	intakeAsk     = "Ask what brought them here today."
	intakeExplore = "Continue exploring their concerns with empathy. Go a little deeper into how this affects their daily life."
	intakeOffer   = "The user has shared enough. Briefly reflect what you heard, then warmly offer to connect them with a volunteer counselor."
)

// intakeInstruction returns the instruction for this turn and whether intake completes with it.
func intakeInstruction(turnCount int, priorOffer bool) (string, bool) {
	switch {
	case turnCount >= 5 || priorOffer:
		return intakeOffer, true
	case turnCount == 4:
		return intakeExplore, false
	case turnCount >= 2:
		return intakeAsk, false
	default:
		return intakeGreet, false
	}
}

func crisisInstruction() string {
	categories := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categories[i] = string(c)
	}
	return fmt.Sprintf(`Assess the crisis level and the best counseling category based on the conversation.

Respond in exactly this format:
LEVEL: [none/low/moderate/high/immediate]
CATEGORY: [%s]
REASONING: [one sentence naming the key phrases or behaviors you relied on]
RESPONSE: [2-3 supportive sentences for the user; do not ask about the category]`, strings.Join(categories, "/"))
}

func resourceInstruction(category models.Category, counselors []models.Counselor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user needs support with: %s\n\nAvailable counselors:\n", category)
	for _, c := range counselors {
		specs := make([]string, len(c.Specializations))
		for i, s := range c.Specializations {
			specs[i] = string(s)
		}
		fmt.Fprintf(&b, "- %s: %s (%d yrs exp, %d/%d clients)\n", c.Name, strings.Join(specs, ", "), c.YearsExperience, c.CurrentLoad, c.Capacity)
	}
	b.WriteString("\nPresent the top 2-3 matches and explain briefly why each could help. Keep it conversational (3-4 sentences).")
	return b.String()
}

// historyTurns converts the last n messages (all when n <= 0) to generation turns.
func historyTurns(messages []models.Message, n int) []genai.Turn {
	if n > 0 && len(messages) > n {
		messages = messages[len(messages)-n:]
	}
	turns := make([]genai.Turn, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.RoleUser:
			turns = append(turns, genai.Turn{Role: genai.RoleUser, Content: m.Content})
		case models.RoleAssistant:
			turns = append(turns, genai.Turn{Role: genai.RoleAssistant, Content: m.Content})
		}
	}
	return turns
}
