package router

import (
	"strings"
)

// Prefix constants
const (
	PrefixBypass   = "/bypass"
	PrefixCategory = "/category:"
)

// Mode represents the pipeline routing mode
type Mode string

const (
	ModeRAG      Mode = "RAG"      // routed by similarity and classifier
	ModeBypass   Mode = "BYPASS"   // finalizer only, no routing or retrieval
	ModeCategory Mode = "CATEGORY" // category forced, routing skipped
)

// ParsedPrompt contains routing information extracted from prompt
type ParsedPrompt struct {
	OriginalPrompt string
	CleanPrompt    string // prompt without prefix
	Mode           Mode
	CategoryKey    string // set in ModeCategory
}

// Parse extracts routing information from prompt
// Supports:
//   - /bypass <prompt> → finalizer only
//   - /category:label <prompt> → retrieval within label
//   - <prompt> → default routed mode
func Parse(prompt string) *ParsedPrompt {
	trimmed := strings.TrimSpace(prompt)
	lower := strings.ToLower(trimmed)

	if strings.HasPrefix(lower, PrefixBypass) {
		rest := trimmed[len(PrefixBypass):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return &ParsedPrompt{
				OriginalPrompt: prompt,
				CleanPrompt:    strings.TrimSpace(rest),
				Mode:           ModeBypass,
			}
		}
	}

	if strings.HasPrefix(lower, PrefixCategory) {
		rest := trimmed[len(PrefixCategory):]
		key, cleanPrompt := extractKeyAndPrompt(rest)
		if key != "" {
			return &ParsedPrompt{
				OriginalPrompt: prompt,
				CleanPrompt:    cleanPrompt,
				Mode:           ModeCategory,
				CategoryKey:    key,
			}
		}
	}

	return &ParsedPrompt{
		OriginalPrompt: prompt,
		CleanPrompt:    trimmed,
		Mode:           ModeRAG,
	}
}

// extractKeyAndPrompt splits "key prompt" into (key, prompt)
func extractKeyAndPrompt(rest string) (string, string) {
	spaceIdx := strings.IndexAny(rest, " \t")
	if spaceIdx == -1 {
		return strings.ToLower(rest), ""
	}
	return strings.ToLower(rest[:spaceIdx]), strings.TrimSpace(rest[spaceIdx+1:])
}

// IsEmpty returns true if the clean prompt is empty
func (p *ParsedPrompt) IsEmpty() bool {
	return strings.TrimSpace(p.CleanPrompt) == ""
}
