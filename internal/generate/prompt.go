package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dyluth/lattice/pkg/shard"
)

// fencePattern matches a response wrapped in one Markdown code fence with an
// optional language tag.
var fencePattern = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// ShardPrompt builds the prompt for an AI-assisted shard edit.
func ShardPrompt(name, shardType string, data shard.Data, request string) string {
	var b strings.Builder
	b.WriteString("Context: You are an AI assistant helping to manage data within a \"Shard\" of a modular system.\n")
	fmt.Fprintf(&b, "Shard Name: %q\n", name)
	fmt.Fprintf(&b, "Shard Type: %q\n", shardType)
	b.WriteString("Current Shard Data (JSON format, or text if not parsable as JSON):\n```\n")
	b.WriteString(data.Text())
	b.WriteString("\n```\n")
	fmt.Fprintf(&b, "User Request: %q\n\n", request)
	b.WriteString("Based on the user request, transform or generate new data for this shard. Output ONLY the new data. ")
	b.WriteString("If the current data is JSON, try to maintain JSON format. ")
	b.WriteString("If the user asks for analysis or a summary not resulting in new data, provide that analysis as plain text.")
	return b.String()
}

// StripFence trims text and removes a surrounding code fence if present.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return text
}

// ParseData converts a generator response to shard data: JSON when the
// unfenced text parses as JSON, otherwise the text itself.
func ParseData(text string) shard.Data {
	return shard.ParseLoose(StripFence(text))
}
