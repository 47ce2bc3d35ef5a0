package batch

import (
	"regexp"
	"strings"
)

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	weekdayPattern    = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	klDotPattern      = regexp.MustCompile(`(?i)\.\s*(kl)`)
	actionPattern     = regexp.MustCompile(`(?i)^(gis umiddelbart|gis 36 timer etter dose 1|gis|bestill|tredje dose gentamicin skal ikke gis)`)
	datePattern       = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})(?:\.(\d{2,4}))?`)
	klTimePattern     = regexp.MustCompile(`(?i)kl\.?\s*(\d{1,2})[:.]?\s*(\d{2})?`)
	clockPattern      = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	bareTimePattern   = regexp.MustCompile(`(?i)^\.*\s*kl\.?\s*\d{1,2}(?::\d{2})?\.*$`)
)

// Instruction is an administration instruction reduced to the parts that
// matter when comparing texts produced by different renderers.
type Instruction struct {
	Action string `json:"action,omitempty"`
	Date   string `json:"date,omitempty"`
	Time   string `json:"time,omitempty"`
	Text   string `json:"text,omitempty"`
}

// ParseInstruction normalizes an instruction. Blank input yields nil.
//
// Spreadsheet texts look like "Gis umiddelbart  -   16.10.Thursday kl.20:00"
// while the engine renders "Gis umiddelbart  -  16.10 20:00"; both reduce to
// the same action, date and time.
func ParseInstruction(text string) *Instruction {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	s = whitespacePattern.ReplaceAllString(s, " ")
	s = weekdayPattern.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
	s = klDotPattern.ReplaceAllString(s, " $1")

	var ins Instruction
	if m := actionPattern.FindStringSubmatch(s); m != nil {
		ins.Action = strings.ToLower(m[1])
		s = strings.Trim(s[len(m[0]):], " -")
	}

	if m := datePattern.FindStringSubmatch(s); m != nil {
		ins.Date = pad2(m[1]) + "." + pad2(m[2])
		s = strings.Trim(strings.Replace(s, m[0], "", 1), " -")
	}

	m := klTimePattern.FindStringSubmatch(s)
	if m == nil {
		m = clockPattern.FindStringSubmatch(s)
	}
	if m != nil {
		minute := m[2]
		if minute == "" {
			minute = "00"
		}
		ins.Time = pad2(m[1]) + ":" + minute
		s = strings.TrimSpace(strings.Replace(s, m[0], "", 1))
	}

	rest := strings.Trim(s, " .-")
	if bareTimePattern.MatchString(rest) {
		rest = ""
	}
	ins.Text = rest
	return &ins
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
