package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fairyhunter13/ai-interview-engine/pkg/textx"
)

// FallbackCandidateName is used when no name can be derived from a résumé.
const FallbackCandidateName = "Candidate"

// maxNameWords bounds how long a first line may be and still read as a name.
const maxNameWords = 6

var (
	emailRe       = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe       = regexp.MustCompile(`(\+?\d{1,2}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)
	nameExcludeRe = regexp.MustCompile(`(?i)resume|cv|curriculum|professional|summary|intern|developer|engineer`)
)

// ContactFields are the best-effort contact facts found in a résumé.
type ContactFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ExtractContactFields applies the layered heuristics: first line as name,
// first email, first phone, name from the email local part, then
// FallbackCandidateName. Name is never empty.
func ExtractContactFields(text string) ContactFields {
	var out ContactFields
	out.Name = nameFromFirstLine(text)
	out.Email = emailRe.FindString(text)
	out.Phone = phoneRe.FindString(text)
	if out.Name == "" && out.Email != "" {
		out.Name = nameFromEmail(out.Email)
	}
	if out.Name == "" {
		out.Name = FallbackCandidateName
	}
	return out
}

func nameFromFirstLine(text string) string {
	var line string
	for _, l := range strings.Split(strings.TrimSpace(text), "\n") {
		if l = textx.CollapseSpaces(l); l != "" {
			line = l
			break
		}
	}
	if line == "" || nameExcludeRe.MatchString(line) {
		return ""
	}
	words := strings.Fields(line)
	if len(words) > maxNameWords || !isCapitalized(words[0]) {
		return ""
	}
	capitalized := 0
	for _, w := range words {
		if isCapitalized(w) {
			capitalized++
		}
	}
	if capitalized < 2 {
		return ""
	}
	return line
}

// isCapitalized reports an upper-case first letter followed by at least one
// lower-case letter, so acronyms like "SQL" do not count.
func isCapitalized(w string) bool {
	r, size := utf8.DecodeRuneInString(w)
	if !unicode.IsUpper(r) || size >= len(w) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(w[size:])
	return unicode.IsLower(next)
}

func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool { return r == '.' || r == '_' })
	for i, p := range parts {
		parts[i] = textx.TitleWord(p)
	}
	return strings.Join(parts, " ")
}
