package flow

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/NimaCare/internal/models"
)

// Fixed replies. Tests compare against these verbatim.
const (
	// SafetyMessage is sent when the intake stage detects crisis language.
	SafetyMessage = "Thank you for trusting me. Your safety is the most important thing. " +
		"Please call 988 (Suicide & Crisis Lifeline) right now if you're in immediate danger. " +
		"I'm connecting you with our crisis specialist to make sure you get the support you need."

	// IntakeAgreementMessage acknowledges a user who accepted the matching offer.
	IntakeAgreementMessage = "Thank you, I'm glad you're open to that. " +
		"Before I connect you, let's make sure your privacy is set up the way you want."

	// IntakeFallbackHandoffMessage ends intake after repeated canned replies.
	IntakeFallbackHandoffMessage = "Thank you for sharing with me. I want to make sure you get real support, " +
		"so let's take the next step together and find the right person for you."

	// EmergencyResources is appended verbatim to an immediate-level crisis response.
	EmergencyResources = "🚨 EMERGENCY RESOURCES:\n" +
		"• Call 988 (Suicide & Crisis Lifeline)\n" +
		"• Text 'HELLO' to 741741 (Crisis Text Line)\n" +
		"• Call 911 if in immediate danger"

	// PrivacyOptions lists the four tiers. Both the first prompt and every retry include it unchanged.
	PrivacyOptions = "**Full Support**\n" +
		"AI can stay with you the whole way, keeping helpful notes and reminders.\n\n" +
		"**Assisted Handoff**\n" +
		"We'll help connect you to a therapist and smooth the transitions.\n\n" +
		"**Your Private Notes**\n" +
		"We keep high-level notes while you stay in control of the details.\n\n" +
		"**No Records**\n" +
		"Totally private. Nothing saved, just this conversation.\n\n" +
		"Pick what feels safest. You can always change your mind later."

	privacyIntro = "Thanks for sharing all of that. Which privacy level feels best for you?"
	privacyRetry = "I didn't catch that. Could you choose one of these privacy levels? You can also answer 1, 2, 3 or 4."

	crisisClarifyMessage = "Thanks for letting me know. What kind of support feels right for you? " +
		"For example: anxiety, depression, trauma, relationships, career, grief, or addiction."

	schedulingDeclineMessage = "No problem! You can always join a support group later if you change your mind. " +
		"Let's continue with setting up your habit tracker."

	closingOpen  = "You've taken an important step today. "
	closingClose = "Remember, you don't have to face this alone."
)

func privacyPrompt() string {
	return privacyIntro + "\n\n" + PrivacyOptions
}

func privacyRetryPrompt() string {
	return privacyRetry + "\n\n" + PrivacyOptions
}

func privacyConfirmation(tier models.PrivacyTier) string {
	return fmt.Sprintf("Perfect! You've selected **%s**. Your privacy preferences have been saved.", tier.DisplayName())
}

// counselorNoun renders "career counselors", or just "counselors" for general.
func counselorNoun(category models.Category) string {
	if category == "" || category == models.CategoryGeneral {
		return "counselors"
	}
	return string(category) + " counselors"
}

func crisisSuggestion(category models.Category) string {
	if category == models.CategoryGeneral {
		return "It sounds like one of our general counselors could be a good place to start. Does that sound right?"
	}
	return fmt.Sprintf("It sounds like a %s counselor might be a good fit for you. Does that sound right?", category.Title())
}

func crisisConfirmed(category models.Category) string {
	return fmt.Sprintf("Great. I'll look for %s who can help.", counselorNoun(category))
}

func crisisOverridden(category models.Category) string {
	return fmt.Sprintf("Thank you for telling me. I'll look for %s instead.", counselorNoun(category))
}

func crisisAccepted(category models.Category) string {
	return fmt.Sprintf("Okay. Let's keep going, and I'll look for %s for you. You can change this at any time.", counselorNoun(category))
}

func crisisImmediateHandoff(category models.Category) string {
	return fmt.Sprintf("I'm also looking for %s who can support you as soon as possible.", counselorNoun(category))
}

// NoCounselorMessage is the apology used when the roster has nobody for category.
func NoCounselorMessage(category models.Category) string {
	return fmt.Sprintf("I'm sorry, I don't have a %s specialist available right now. "+
		"I can connect you with one of our general counselors instead, who can support you and help find the right next step.",
		category.Title())
}

func schedulingOffer(category models.Category, groups []models.SupportGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "While you're connecting with your %s specialist, would you like to join an anonymous peer support group?\n\n", category.Title())
	b.WriteString("**Why Join a Support Group?**\n")
	fmt.Fprintf(&b, "• Connect with others facing similar %s challenges\n", category)
	b.WriteString("• Share experiences in a safe, judgment-free space\n")
	b.WriteString("• Get support between your therapy sessions\n")
	b.WriteString("• Completely anonymous, use any name you like\n\n")
	if len(groups) > 0 {
		b.WriteString("**Open Groups**\n")
		for _, g := range groups {
			fmt.Fprintf(&b, "• %s (%s, %s group)\n", g.Name, g.MeetingTime, g.Size)
		}
		b.WriteString("\n")
	}
	b.WriteString("Support groups meet weekly via video chat. Would you like me to add you to the waitlist?")
	return b.String()
}

func schedulingJoined(group *models.SupportGroup) string {
	name := "the support group"
	if group != nil {
		name = "the " + group.Name
	}
	return fmt.Sprintf("Perfect! I've added you to %s waitlist. "+
		"You'll receive details about the next meeting and how to join anonymously.", name)
}

func habitMessage(category models.Category, habits []models.HabitRecord) string {
	var b strings.Builder
	if category == models.CategoryGeneral {
		b.WriteString("Here are a few small habits that can make a real difference:\n\n")
	} else {
		fmt.Fprintf(&b, "Here are a few small habits that can help with %s:\n\n", category)
	}
	for i, h := range habits {
		fmt.Fprintf(&b, "%d. **%s** (%d min, %s)\n   %s\n", i+1, h.Name, h.DurationMinutes, h.Frequency, h.Rationale)
	}
	b.WriteString("\nStart with whichever feels easiest. Small steps count.")
	return b.String()
}

// ClosingMessage synthesizes the terminal message from the facts present in state.
func ClosingMessage(state *models.ConversationState) string {
	f := &state.Facts
	var b strings.Builder
	b.WriteString(closingOpen)
	if f.Resource != nil && f.Resource.Found {
		fmt.Fprintf(&b, "I've matched you with %s who are ready to help. ", counselorNoun(state.ResolvedCategory()))
	}
	if f.Scheduling.GroupJoined != nil && *f.Scheduling.GroupJoined {
		b.WriteString("Your support group spot is on the waitlist. ")
	}
	if state.IsComplete(models.StageHabit) && f.Habits != nil && len(f.Habits.Habits) > 0 {
		b.WriteString("Start with those small habits we discussed, they can make a real difference. ")
	}
	if f.NeedsEmergency || f.Intake.ForceCrisis {
		b.WriteString("If you ever feel unsafe, call or text 988 any time. ")
	}
	b.WriteString(closingClose)
	return b.String()
}
