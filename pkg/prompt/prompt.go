// Package prompt assembles the system instructions sent with every turn.
package prompt

import "strings"

const (
	pinnedHeading  = "### PINNED FACTS (user-approved, durable)"
	contextHeading = "### MEMORY CONTEXT (from Zep, filtered by rating)"

	// NoPinnedFacts is rendered when no facts are pinned.
	NoPinnedFacts = "(none)"

	// NoMemoryContext is rendered when the memory context is empty.
	NoMemoryContext = "(no relevant memory)"
)

// BaseInstructions is the default system message.
const BaseInstructions = `You are **TraceMemory Copilot**, a helpful assistant with long-term memory.

## Objectives
- Provide clear, practical answers
- Use relevant past context when it helps (preferences, goals, ongoing tasks)
- If you are missing key info, ask a short clarifying question

## Using memory
You may receive a MEMORY CONTEXT section (facts/entities/summaries) from previous sessions.
Use it as *supporting evidence*:
- Prefer durable facts (preferences, ongoing projects, constraints)
- Be careful with ambiguous or outdated details
- Weave it into the answer naturally (do not dump raw memory)

## Safety & privacy
- Never reveal secrets (API keys, internal tokens)
- If the user asks what you remember, give a brief summary and offer to forget items if requested`

// Assemble merges base instructions, pinned facts and memory context, in
// that order. The context is used as given; bounding it is the cache's job.
func Assemble(base string, pinned []string, memoryContext string) string {
	var b strings.Builder

	b.WriteString(base)
	b.WriteString("\n\n")

	b.WriteString(pinnedHeading)
	b.WriteString("\n")
	b.WriteString(renderPinned(pinned))
	b.WriteString("\n\n")

	b.WriteString(contextHeading)
	b.WriteString("\n")
	if strings.TrimSpace(memoryContext) == "" {
		b.WriteString(NoMemoryContext)
	} else {
		b.WriteString(memoryContext)
	}
	b.WriteString("\n")

	return b.String()
}

func renderPinned(pinned []string) string {
	lines := make([]string, 0, len(pinned))
	for _, f := range pinned {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		lines = append(lines, "- "+f)
	}
	if len(lines) == 0 {
		return NoPinnedFacts
	}
	return strings.Join(lines, "\n")
}
