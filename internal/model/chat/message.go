package chat

// Role identifies who authored a message in the chat view.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Greeting is the single assistant message shown on a fresh or reset view.
const Greeting = "Welcome to the MTG Strategist! Ask me about deck building, card synergies, or strategy tips for Magic: The Gathering."

// Apology replaces the assistant turn when a send fails.
const Apology = "Sorry, I encountered an error. Please try again."

// Message is one turn of the visible transcript. It has no identity beyond
// its position in the list.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GreetingMessage returns the assistant greeting as a message.
func GreetingMessage() Message {
	return Message{Role: RoleAssistant, Content: Greeting}
}
