// Package extract recovers structured registrant fields from free-form chat
// text. It is best effort by contract: a field the text does not carry is
// simply left empty, and every extracted value is unverified user input that
// still has to pass validation before it reaches storage.
package extract

import (
	"regexp"
	"strings"
)

// Registrant holds whatever the extractor managed to recover. Absent fields
// stay empty and are omitted from JSON.
type Registrant struct {
	EventName   string `json:"event_name,omitempty"`
	UserName    string `json:"user_name,omitempty"`
	UserEmail   string `json:"user_email,omitempty"`
	UserPhone   string `json:"user_phone,omitempty"`
	UserClass   string `json:"user_class,omitempty"`
	UserSection string `json:"user_section,omitempty"`
	UserYear    string `json:"user_year,omitempty"`
}

// The cohort pattern cascade runs in this order and the order is a tested
// contract: joined triple, comma triple, then the per-token fallback scan.
var (
	cohortTripleRe = regexp.MustCompile(`(?i)\b(IoT|AIDS|Cyber)\s+([AB])\s+(202[3-6])\b`)
	cohortCommaRe  = regexp.MustCompile(`(?i)\b(IoT|AIDS|Cyber)\s*,\s*([AB])\s*,\s*(202[3-6])\b`)
	classRe        = regexp.MustCompile(`(?i)\b(IoT|AIDS|Cyber)\b`)
	sectionRe      = regexp.MustCompile(`\b([AB])\b`)
	yearRe         = regexp.MustCompile(`\b(202[3-6])\b`)

	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	phoneRe = regexp.MustCompile(`\b\d{10}\b`)

	// "register for X - details" and the separator-less variant where the
	// event name runs until punctuation or a labelled field.
	verbPrefixRe = regexp.MustCompile(`(?i)(?:register|signup|sign up)\s+(?:for\s+)?(.+)`)
	verbInlineRe = regexp.MustCompile(`(?i)(?:register|signup|sign up)\s+(?:for\s+)?([^.]+?)(?:\.|,|Name:|Email:)`)

	commaRunRe = regexp.MustCompile(`,+`)
)

// Cohort extracts class, section and year. The two triple patterns require
// co-occurrence and short-circuit on first match; the fallback scan captures
// each token independently and may return a partial result.
func Cohort(text string) Registrant {
	var r Registrant
	text = strings.TrimSpace(text)

	for _, re := range []*regexp.Regexp{cohortTripleRe, cohortCommaRe} {
		if m := re.FindStringSubmatch(text); m != nil {
			r.UserClass = canonicalClass(m[1])
			r.UserSection = strings.ToUpper(m[2])
			r.UserYear = m[3]
			return r
		}
	}

	if m := classRe.FindStringSubmatch(text); m != nil {
		r.UserClass = canonicalClass(m[1])
	}
	if m := sectionRe.FindStringSubmatch(text); m != nil {
		r.UserSection = strings.ToUpper(m[1])
	}
	if m := yearRe.FindStringSubmatch(text); m != nil {
		r.UserYear = m[1]
	}
	return r
}

// Registration parses a full registration-shaped message, e.g.
//
//	Register for abc - John Doe, john@nit.ac.in, 9876543210, IoT A 2024
//
// The part before " - " carries the event name (register/signup verbs are
// stripped); the part after carries the registrant details. Without the
// separator the event name is recovered from a verb-prefixed search and the
// whole message is treated as the details segment.
func Registration(text string) Registrant {
	var r Registrant
	message := strings.TrimSpace(text)

	details := message
	if intent, rest, ok := strings.Cut(message, " - "); ok {
		if m := verbPrefixRe.FindStringSubmatch(intent); m != nil {
			r.EventName = strings.TrimSpace(m[1])
		} else {
			r.EventName = strings.TrimSpace(intent)
		}
		details = strings.TrimSpace(rest)
	} else if m := verbInlineRe.FindStringSubmatch(message); m != nil {
		r.EventName = strings.TrimSpace(m[1])
	}

	email := emailRe.FindString(details)
	phone := phoneRe.FindString(details)
	r.UserEmail = email
	r.UserPhone = phone

	r.UserName = extractName(details, email, phone)

	// A bare section or year with no class token anywhere in the details is
	// far more likely part of a name or date than a cohort, so the full
	// parser only adopts fallback partials anchored on a class.
	cohort := Cohort(details)
	if cohort.UserClass != "" {
		r.UserClass = cohort.UserClass
		r.UserSection = cohort.UserSection
		r.UserYear = cohort.UserYear
	}

	return r
}

// extractName greedily takes leading tokens as name words. The first token
// that is purely numeric, a cohort keyword, or a single character is a hard
// break: nothing after it joins the name, however name-like it looks.
func extractName(details, email, phone string) string {
	text := details
	if email != "" {
		text = strings.ReplaceAll(text, email, "")
	}
	if phone != "" {
		text = strings.ReplaceAll(text, phone, "")
	}
	text = strings.TrimSpace(commaRunRe.ReplaceAllString(text, " "))

	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.Trim(w, ",. ")
		if w == "" || len(w) == 1 || isNumeric(w) || isCohortKeyword(w) {
			break
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// Email returns the first email-shaped token in text, or "".
func Email(text string) string {
	return emailRe.FindString(text)
}

// Merge fills r's empty fields from other. Fields already set are never
// overwritten, so explicit caller-supplied values always win over anything
// a later extraction pass infers.
func (r *Registrant) Merge(other Registrant) {
	fill(&r.EventName, other.EventName)
	fill(&r.UserName, other.UserName)
	fill(&r.UserEmail, other.UserEmail)
	fill(&r.UserPhone, other.UserPhone)
	fill(&r.UserClass, other.UserClass)
	fill(&r.UserSection, other.UserSection)
	fill(&r.UserYear, other.UserYear)
}

// HasCohort reports whether all three cohort fields are present.
func (r *Registrant) HasCohort() bool {
	return r.UserClass != "" && r.UserSection != "" && r.UserYear != ""
}

// WidenCohort re-runs the cohort extractor over every other textual field
// plus the raw message echo, filling only cohort fields still absent. Running
// it over an already-complete record is a no-op.
func (r *Registrant) WidenCohort(rawMessage string) {
	if r.HasCohort() {
		return
	}
	parts := []string{r.UserName, r.UserEmail, r.UserPhone, r.EventName, rawMessage}
	wide := strings.TrimSpace(strings.Join(parts, " "))
	if wide == "" {
		return
	}
	cohort := Cohort(wide)
	fill(&r.UserClass, cohort.UserClass)
	fill(&r.UserSection, cohort.UserSection)
	fill(&r.UserYear, cohort.UserYear)
}

func fill(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func canonicalClass(s string) string {
	switch strings.ToUpper(s) {
	case "IOT":
		return "IoT"
	case "AIDS":
		return "AIDS"
	case "CYBER":
		return "Cyber"
	}
	return s
}

func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isCohortKeyword(s string) bool {
	switch strings.ToUpper(s) {
	case "IOT", "AIDS", "CYBER", "A", "B":
		return true
	}
	return false
}
