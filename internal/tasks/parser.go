package tasks

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Item is one task-list entry.
type Item struct {
	// ID is the task identifier, synthetic when the line carries none.
	ID string `json:"id"`

	// Text is the task description after markers are consumed.
	Text string `json:"text"`

	// Completed reports a checked checkbox.
	Completed bool `json:"completed"`

	// Parallel reports the [P] parallel-eligibility hint. Execution
	// order remains author order; no dependency solving happens here.
	Parallel bool `json:"parallel"`

	// Line is the 1-based source line of the item.
	Line int `json:"line"`
}

// Progress aggregates task completion.
type Progress struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`

	// NextPending is the first incomplete item in document order, nil
	// when everything is complete.
	NextPending *Item `json:"next_pending,omitempty"`
}

// Token patterns of the task-line grammar.
var (
	checkboxPattern    = regexp.MustCompile(`^\s*- \[( |x|X)\] (.+)$`)
	bareIDPattern      = regexp.MustCompile(`^T\d+$`)
	bracketedIDPattern = regexp.MustCompile(`^\[T\d+\]$`)
)

const parallelMarker = "[P]"

// Parse reads a task list. Non-checkbox lines are ignored.
func Parse(r io.Reader) ([]Item, error) {
	var items []Item

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		m := checkboxPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}

		item := Item{
			Completed: m[1] == "x" || m[1] == "X",
			Line:      line,
		}

		rest := m[2]
		for {
			tok, tail := nextToken(rest)
			if tok == parallelMarker {
				item.Parallel = true
				rest = tail
				continue
			}
			if id, ok := parseID(tok); ok && item.ID == "" {
				item.ID = id
				rest = tail
				continue
			}
			break
		}
		item.Text = strings.TrimSpace(rest)

		if item.ID == "" {
			item.ID = fmt.Sprintf("T%03d", len(items)+1)
		}

		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan task list: %w", err)
	}
	return items, nil
}

// ParseFile parses the task list at path.
func ParseFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task list: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// ComputeProgress aggregates completion over parsed items.
func ComputeProgress(items []Item) Progress {
	p := Progress{Total: len(items)}
	for i := range items {
		if items[i].Completed {
			p.Completed++
		} else if p.NextPending == nil {
			next := items[i]
			p.NextPending = &next
		}
	}
	if p.Total > 0 {
		p.Percentage = float64(p.Completed) / float64(p.Total) * 100
	}
	return p
}

// parseID recognizes a bare or bracketed task identifier token.
func parseID(tok string) (string, bool) {
	if bareIDPattern.MatchString(tok) {
		return tok, true
	}
	if bracketedIDPattern.MatchString(tok) {
		return strings.TrimSuffix(strings.TrimPrefix(tok, "["), "]"), true
	}
	return "", false
}

// nextToken splits the first whitespace-delimited token off s.
func nextToken(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}
