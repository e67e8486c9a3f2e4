package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/mnemo/internal/model"
)

// Parser splits chat transcripts into ordered turns.
// Markdown transcripts use speaker headers ("User:", "You said:", ...)
// with optional date headers between sections; HTML exports are reduced
// to visible text first (see html.go).
type Parser struct {
	tolerance time.Duration
}

// NewParser creates a parser. tolerance bounds how far a timestamp may
// fall behind the running high-water mark before it is treated as out
// of order and cleared.
func NewParser(tolerance time.Duration) *Parser {
	return &Parser{tolerance: tolerance}
}

var (
	speakerPattern = regexp.MustCompile(`(?i)^(#+\s*)?(you said:|chatgpt said:|user:|assistant:|system:)\s*$`)
	datePattern    = regexp.MustCompile(`(?i)^(#+\s*)?((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}|Date:\s*[\d/-]+|\d{1,2}/\d{1,2}/\d{2,4})\s*$`)
	filenameDate   = regexp.MustCompile(`(\d{2})(\d{2})(\d{4})`)
)

var roleMap = map[string]model.Role{
	"you said:":     model.RoleUser,
	"user:":         model.RoleUser,
	"chatgpt said:": model.RoleAssistant,
	"assistant:":    model.RoleAssistant,
	"system:":       model.RoleSystem,
}

// Result is the parsed transcript
type Result struct {
	Title    string
	Turns    []model.Turn
	Warnings []string
}

// Parse splits a markdown transcript into ordered turns. filename is
// optional; a MMDDYYYY fragment in it seeds the base date. Parsing is
// total: unparseable sections are skipped, never fatal.
func (p *Parser) Parse(text, filename string) *Result {
	res := &Result{}

	var current *time.Time
	if filename != "" {
		if m := filenameDate.FindStringSubmatch(filename); m != nil {
			if ts, ok := makeDate(m[3], m[1], m[2]); ok {
				current = &ts
			}
		}
	}

	var buffer []string
	role := model.RoleUnknown
	order := 0
	started := false

	flush := func() {
		content := strings.TrimSpace(strings.Join(buffer, "\n"))
		buffer = buffer[:0]
		if content == "" {
			return
		}
		order++
		turn := model.Turn{
			ID:    fmt.Sprintf("turn-%d", order),
			Order: order,
			Role:  role,
			Text:  content,
		}
		if current != nil {
			ts := *current
			turn.Timestamp = &ts
		}
		res.Turns = append(res.Turns, turn)
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t")
		stripped := strings.TrimSpace(line)

		if m := datePattern.FindStringSubmatch(stripped); m != nil {
			// a date header dates the sections after it; the pending
			// turn still belongs to the previous date
			if started {
				flush()
			}
			if ts, ok := parseDateHeader(m[2]); ok {
				current = &ts
			} else {
				res.Warnings = append(res.Warnings, fmt.Sprintf("unparseable date header: %q", m[2]))
			}
			continue
		}

		if m := speakerPattern.FindStringSubmatch(stripped); m != nil {
			if started {
				flush()
			} else {
				buffer = buffer[:0]
				started = true
			}
			r, ok := roleMap[strings.ToLower(m[2])]
			if !ok {
				r = model.RoleUnknown
			}
			role = r
			continue
		}

		if started {
			buffer = append(buffer, line)
		}
	}
	if started {
		flush()
	}

	res.normalizeTimestamps(p.tolerance)
	res.Title = inferTitle(res.Turns)
	return res
}

// normalizeTimestamps enforces the monotonic non-decreasing timestamp
// contract: a timestamp more than tolerance behind the high-water mark
// is cleared (the turn keeps its position and text).
func (r *Result) normalizeTimestamps(tolerance time.Duration) {
	var highWater *time.Time
	for i := range r.Turns {
		ts := r.Turns[i].Timestamp
		if ts == nil {
			continue
		}
		if highWater != nil && highWater.Sub(*ts) > tolerance {
			r.Warnings = append(r.Warnings,
				fmt.Sprintf("turn %d: out-of-order timestamp %s dropped", r.Turns[i].Order, ts.Format("2006-01-02")))
			r.Turns[i].Timestamp = nil
			continue
		}
		if highWater == nil || ts.After(*highWater) {
			highWater = ts
		}
	}
}

// inferTitle derives a short title from the first non-empty user turn,
// falling back to the first turn.
func inferTitle(turns []model.Turn) string {
	if len(turns) == 0 {
		return "Untitled Thread"
	}
	candidate := turns[0]
	for _, t := range turns {
		if t.Role == model.RoleUser && strings.TrimSpace(t.Text) != "" {
			candidate = t
			break
		}
	}
	first := strings.SplitN(strings.TrimSpace(candidate.Text), "\n", 2)[0]
	if runes := []rune(first); len(runes) > 60 {
		return string(runes[:60]) + "…"
	}
	return first
}

func parseDateHeader(s string) (time.Time, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "Date:"))
	s = strings.TrimSpace(s)
	for _, layout := range []string{
		"January 2, 2006",
		"January 2 2006",
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	if parts := strings.Split(s, "/"); len(parts) == 3 {
		y := parts[2]
		if len(y) == 2 {
			y = "20" + y
		}
		return makeDateOK(y, parts[0], parts[1])
	}
	return time.Time{}, false
}

func makeDate(year, month, day string) (time.Time, bool) {
	return makeDateOK(year, month, day)
}

func makeDateOK(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), true
}
