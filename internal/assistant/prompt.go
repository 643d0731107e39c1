package assistant

import (
	"strings"
)

// HistoryLimit is how many previous chat turns are replayed to the model.
const HistoryLimit = 6

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat-with-gemini.
type ChatRequest struct {
	LessonTitle   string   `json:"lesson_title"`
	LessonContent string   `json:"lesson_content"`
	ImageURLs     []string `json:"image_urls"`
	UserMessage   string   `json:"user_message"`
	ChatHistory   []Turn   `json:"chat_history"`
}

const promptSuffix = `
Please provide a helpful, educational response based on the lesson content. Be conversational and supportive. If the student asks about something not covered in the lesson, let them know and offer to help with what is covered. Keep responses concise but informative.
`

// BuildPrompt renders the lesson context, the recent history and the new
// question into a single prompt.
func BuildPrompt(req ChatRequest) string {
	var b strings.Builder
	b.WriteString("\nYou are an AI assistant helping a student with their lesson. Here's the context:\n\n")
	b.WriteString("Lesson Title: " + req.LessonTitle + "\n\n")
	b.WriteString("Lesson Content:\n" + req.LessonContent + "\n\n")
	b.WriteString("Image URLs in the lesson (if any):\n")
	if len(req.ImageURLs) > 0 {
		b.WriteString(strings.Join(req.ImageURLs, ", "))
	} else {
		b.WriteString("No images")
	}
	b.WriteString("\n\nPrevious conversation history:\n")

	history := req.ChatHistory
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}
	for _, turn := range history {
		role := "Assistant"
		if turn.Role == "user" {
			role = "Student"
		}
		b.WriteString("\n" + role + ": " + turn.Content)
	}

	b.WriteString("\n\nCurrent student question: " + req.UserMessage)
	b.WriteString(promptSuffix)
	return b.String()
}
