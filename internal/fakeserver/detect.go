package fakeserver

import (
	"regexp"
	"strings"
)

// Toy detector: just enough shape fidelity for development and tests.
var (
	phonePattern = regexp.MustCompile(`\b\d{3}[-.\s]\d{3}[-.\s]\d{4}\b`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
)

// namePrefixes introduce a capitalized token pair we treat as a person.
var namePrefixes = []string{"this is ", "my name is ", "i am ", "i'm "}

func finding(category, text string, confidence float64, start, end int) map[string]any {
	return map[string]any{
		"type":       category,
		"text":       text,
		"confidence": confidence,
		"start":      start,
		"end":        end,
		"model":      "fake-regex",
	}
}

func detectPII(text string) []map[string]any {
	findings := []map[string]any{}

	for _, m := range phonePattern.FindAllStringIndex(text, -1) {
		findings = append(findings, finding("PHONE_NUMBER", text[m[0]:m[1]], 0.9, m[0], m[1]))
	}
	for _, m := range emailPattern.FindAllStringIndex(text, -1) {
		findings = append(findings, finding("EMAIL_ADDRESS", text[m[0]:m[1]], 0.95, m[0], m[1]))
	}
	for _, name := range detectNames(text) {
		findings = append(findings, finding("PERSON", text[name[0]:name[1]], 0.7, name[0], name[1]))
	}

	return findings
}

func detectNames(text string) [][2]int {
	lower := strings.ToLower(text)
	var spans [][2]int

	for _, prefix := range namePrefixes {
		at := 0
		for {
			i := strings.Index(lower[at:], prefix)
			if i < 0 {
				break
			}
			start := at + i + len(prefix)
			end := nameEnd(text, start)
			if end > start {
				spans = append(spans, [2]int{start, end})
			}
			at = start
		}
	}

	return spans
}

// nameEnd extends over up to two capitalized words following start.
func nameEnd(text string, start int) int {
	end := start
	words := 0
	for end < len(text) && words < 2 {
		wordEnd := end
		for wordEnd < len(text) && isWordChar(text[wordEnd]) {
			wordEnd++
		}
		if wordEnd == end || text[end] < 'A' || text[end] > 'Z' {
			break
		}
		end = wordEnd
		words++
		if end < len(text) && text[end] == ' ' {
			if end+1 < len(text) && text[end+1] >= 'A' && text[end+1] <= 'Z' && words < 2 {
				end++
				continue
			}
		}
		break
	}
	if words == 0 {
		return start
	}
	return end
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '\''
}
