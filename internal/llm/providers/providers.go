// Package providers registers the built-in LLM backends with the llm factory.
package providers

import (
	"docintake/internal/llm"
	"docintake/internal/llm/claude"
	"docintake/internal/llm/gemini"
	"docintake/internal/llm/openai"
)

// Register makes claude, gemini and openai available to llm.NewExtractor.
func Register() {
	llm.RegisterProvider("claude", claude.Factory)
	llm.RegisterProvider("gemini", gemini.Factory)
	llm.RegisterProvider("openai", openai.Factory)
}
