package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/store"
)

var (
	memoryContextToolName    = "memory_context"
	memoryContextDescription = "Return the long-term memory context of the active TraceMemory session: facts about the user at or above a rating threshold (0-1). Omit min_rating to use the session threshold."

	memoryFactsToolName    = "memory_facts"
	memoryFactsDescription = "List the fact candidates extracted from the active session's memory context, with rating and source when known."

	pinnedFactsToolName    = "pinned_facts"
	pinnedFactsDescription = "List the user-approved pinned facts that are always sent to the assistant."
)

// MemoryContextInput represents the input arguments for the MCP memory_context tool.
type MemoryContextInput struct {
	MinRating *float64 `json:"min_rating,omitempty" jsonschema:"minimum fact rating between 0 and 1"`
}

// MemoryContextOutput is the structured output of memory_context.
type MemoryContextOutput struct {
	Context string `json:"context"`
}

// MemoryFactsOutput is the structured output of memory_facts.
type MemoryFactsOutput struct {
	Facts []memory.FactItem `json:"facts"`
}

// PinnedFactsOutput is the structured output of pinned_facts.
type PinnedFactsOutput struct {
	Facts []store.PinnedFact `json:"facts"`
}

func (s *Server) handleMemoryContext(ctx context.Context, _ *mcp.CallToolRequest, input MemoryContextInput) (*mcp.CallToolResult, MemoryContextOutput, error) {
	rating := -1.0
	if input.MinRating != nil {
		rating = *input.MinRating
		if rating < 0 || rating > 1 {
			return errorResult("min_rating must be between 0 and 1"), MemoryContextOutput{}, nil
		}
	}

	mc, err := s.config.Copilot.Context(ctx, rating)
	if err != nil {
		s.config.Logger.Warn("memory_context failed", "error", err)
		return errorResult("Memory context failed: %v", err), MemoryContextOutput{}, nil
	}

	output := MemoryContextOutput{Context: mc.Text}
	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), MemoryContextOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) handleMemoryFacts(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, MemoryFactsOutput, error) {
	facts, err := s.config.Copilot.Facts(ctx)
	if err != nil {
		s.config.Logger.Warn("memory_facts failed", "error", err)
		return errorResult("Fact extraction failed: %v", err), MemoryFactsOutput{}, nil
	}
	if facts == nil {
		facts = []memory.FactItem{}
	}

	output := MemoryFactsOutput{Facts: facts}
	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), MemoryFactsOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) handlePinnedFacts(_ context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, PinnedFactsOutput, error) {
	pins, err := s.config.Copilot.Pinned()
	if err != nil {
		return errorResult("Loading pinned facts failed: %v", err), PinnedFactsOutput{}, nil
	}
	if pins == nil {
		pins = []store.PinnedFact{}
	}

	output := PinnedFactsOutput{Facts: pins}
	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), PinnedFactsOutput{}, nil
	}
	return result, output, nil
}
