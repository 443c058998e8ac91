package debugger

import (
	"os"
	"strings"

	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// ReadSourceContext reads source lines around a stop location, marking the
// active line. Returns nil when the file or line is unknown or unreadable;
// source context is decoration, never a failure.
func ReadSourceContext(file string, line, context int) []api.SourceLine {
	if file == "" || line <= 0 {
		return nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil
	}
	lines := strings.Split(string(data), "\n")

	start := line - context
	if start < 1 {
		start = 1
	}
	end := line + context
	if end > len(lines) {
		end = len(lines)
	}
	if start > len(lines) {
		return nil
	}

	out := make([]api.SourceLine, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, api.SourceLine{
			Line:    i,
			Text:    strings.TrimRight(lines[i-1], "\r"),
			Current: i == line,
		})
	}
	return out
}
