// Package mentor implements the two-stage AI office-hours mentor: a
// research completion call followed by a generative mentorship call,
// orchestrated per conversation turn.
package mentor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hackfund/server/internal/domain"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a mentor conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Request carries everything the mentor stage needs for one turn.
// Budget state is threaded in explicitly so the prompt builder has no
// hidden dependencies.
type Request struct {
	UserMessage        string
	ProjectContext     string
	ResearchFindings   string
	RecentHistory      []Message
	RemainingBudget    domain.Cents
	PurchasedItemNames []string
}

// ResearchProvider wraps the research-completion stage.
type ResearchProvider interface {
	Research(ctx context.Context, query, projectContext string) (string, error)
}

// MentorProvider wraps the generative mentorship stage.
type MentorProvider interface {
	Mentor(ctx context.Context, req Request) (string, error)
}

// historyWindow is how many trailing messages are passed to the mentor
// stage as conversational context.
const historyWindow = 5

// greetingMessage is pushed when the mentor panel opens. It lists the
// team's purchased offerings and asks for the project idea; no stage
// client is called.
func greetingMessage(purchasedNames []string) string {
	purchased := "No APIs purchased yet"
	if len(purchasedNames) > 0 {
		purchased = strings.Join(purchasedNames, ", ")
	}
	return fmt.Sprintf(`Hey there, future hackathon champion! 🚀 I'm your SixtyFour AI office hours mentor, and I'm here to help you build something amazing!

I see that you have purchased: %s

Before we dive into the code, I'd love to hear about your project idea. What are you building? What's your vision? This will help me give you the most relevant advice and API recommendations based on your budget and goals.

Tell me about your project! 💡`, purchased)
}

// projectIdeaAck is the static reply to the first user message. It is
// deliberately not model-generated: no external API call is spent before
// project context exists.
const projectIdeaAck = `Awesome! I love your project idea! 🎉 Now let me research the latest APIs and technologies that would be perfect for what you're building. I'll also check out some trending project ideas in your space.

What specific aspect would you like to work on first? Are you looking for:
• API recommendations?
• Code examples?
• Project structure advice?
• Help with a specific error?

Let me know what you need most!`

// stageFailureReply substitutes for the mentor stage output when the
// generative call fails; the turn still completes with an assistant
// message.
const stageFailureReply = `I'm having trouble connecting to my research tools right now, but I can still help you with general coding advice! 💪

What specific coding challenge or question do you have about your project? I'm here to mentor you through it!`

// panicFallbackReply is the last-resort assistant message appended when
// the turn pipeline fails in an unexpected way.
const panicFallbackReply = `Oops! Something went wrong on my end. Let me try again - what were you asking about? 🤔

In the meantime, I can help you with:
• General coding best practices
• Project structure advice
• Debugging tips
• API integration strategies`
