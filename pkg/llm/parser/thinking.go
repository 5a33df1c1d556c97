// Package parser separates reasoning from payload in LLM replies.
package parser

import (
	"strings"

	"github.com/entrhq/pagepilot/pkg/llm"
)

// thinkingTags are the opening tags models use for visible reasoning. The
// closing tag is derived by inserting a slash.
var thinkingTags = []string{"<thinking>", "<think>"}

// ThinkingParser splits streamed content into reasoning and message chunks.
// It keeps state across chunks so tags split between two chunks are handled.
type ThinkingParser struct {
	pending    strings.Builder // text that may be the start of a tag
	closeTag   string          // closing tag while inside a reasoning block
	inThinking bool
}

// NewThinkingParser creates a new thinking parser.
func NewThinkingParser() *ThinkingParser {
	return &ThinkingParser{}
}

// Parse consumes a content chunk and returns the reasoning and message text
// it completes. Either chunk may be nil.
func (p *ThinkingParser) Parse(content string) (thinkingChunk, messageChunk *llm.StreamChunk) {
	if content == "" {
		return nil, nil
	}

	var thinking, message strings.Builder
	text := p.pending.String() + content
	p.pending.Reset()

	for len(text) > 0 {
		if p.inThinking {
			idx := strings.Index(text, p.closeTag)
			if idx < 0 {
				keep := partialSuffix(text, []string{p.closeTag})
				thinking.WriteString(text[:len(text)-keep])
				p.pending.WriteString(text[len(text)-keep:])
				break
			}
			thinking.WriteString(text[:idx])
			text = text[idx+len(p.closeTag):]
			p.inThinking = false
			p.closeTag = ""
			continue
		}

		idx, tag := firstTag(text)
		if idx < 0 {
			keep := partialSuffix(text, thinkingTags)
			message.WriteString(text[:len(text)-keep])
			p.pending.WriteString(text[len(text)-keep:])
			break
		}
		message.WriteString(text[:idx])
		text = text[idx+len(tag):]
		p.inThinking = true
		p.closeTag = "</" + tag[1:]
	}

	return chunkOf(thinking.String(), llm.ContentTypeThinking), chunkOf(message.String(), llm.ContentTypeMessage)
}

// Flush returns any buffered text. Call it once the stream has ended.
func (p *ThinkingParser) Flush() (thinkingChunk, messageChunk *llm.StreamChunk) {
	rest := p.pending.String()
	p.pending.Reset()
	if p.inThinking {
		return chunkOf(rest, llm.ContentTypeThinking), nil
	}
	return nil, chunkOf(rest, llm.ContentTypeMessage)
}

// IsInThinking returns true if currently inside a reasoning block.
func (p *ThinkingParser) IsInThinking() bool {
	return p.inThinking
}

// Reset resets the parser state for a new stream.
func (p *ThinkingParser) Reset() {
	p.pending.Reset()
	p.inThinking = false
	p.closeTag = ""
}

// StripThinking removes reasoning blocks from a complete reply.
func StripThinking(reply string) string {
	p := NewThinkingParser()
	_, msg := p.Parse(reply)
	_, rest := p.Flush()

	var out strings.Builder
	if msg != nil {
		out.WriteString(msg.Content)
	}
	if rest != nil {
		out.WriteString(rest.Content)
	}
	return out.String()
}

// ExtractJSONObject returns the outermost JSON object in a reply, dropping
// markdown code fences and surrounding prose. The input is returned trimmed
// when no object is found.
func ExtractJSONObject(reply string) string {
	trimmed := strings.TrimSpace(reply)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		return trimmed[start : end+1]
	}
	return trimmed
}

func firstTag(text string) (int, string) {
	best, bestTag := -1, ""
	for _, tag := range thinkingTags {
		if idx := strings.Index(text, tag); idx >= 0 && (best < 0 || idx < best) {
			best, bestTag = idx, tag
		}
	}
	return best, bestTag
}

// partialSuffix returns the length of the longest suffix of text that is a
// proper prefix of one of the tags.
func partialSuffix(text string, tags []string) int {
	longest := 0
	for _, tag := range tags {
		for n := len(tag) - 1; n > longest; n-- {
			if n <= len(text) && strings.HasSuffix(text, tag[:n]) {
				longest = n
				break
			}
		}
	}
	return longest
}

func chunkOf(text string, kind llm.ContentType) *llm.StreamChunk {
	if text == "" {
		return nil
	}
	return &llm.StreamChunk{Content: text, Type: kind}
}
