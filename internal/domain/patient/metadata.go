package patient

import (
	"regexp"
	"strings"
)

// Unknown is the value of every metadata field that could not be found.
const Unknown = "Unknown"

// Metadata is the patient header of a lab report as printed on the document.
type Metadata struct {
	Name         string `json:"patient_name"`
	ID           string `json:"patient_id"`
	AgeGenderRaw string `json:"age_gender"`
	Doctor       string `json:"doctor"`
	Date         string `json:"date"`
}

// rule is one pattern for a field. format turns a match's submatches into the
// field value; an empty result lets the next rule try.
type rule struct {
	re     *regexp.Regexp
	format func(m []string) string
}

func firstGroup(m []string) string {
	return strings.TrimSpace(m[1])
}

// namePattern is a run of words separated by single spaces, so a capture
// stops at the column gap before the next printed field.
const namePattern = `[A-Za-z][A-Za-z.]*(?: [A-Za-z.]+)*`

// Rules are tried in order per field and the first non-empty value wins.
var (
	nameRules = []rule{
		{
			re:     regexp.MustCompile(`(?i)Patient\s*Name\s*[:\-.]?[ \t]*((?:Mrs|Mr|Ms)\.)?[ \t]*(` + namePattern + `)`),
			format: formatName,
		},
		// A bare "Name" needs a separator so table headers such as
		// "Test Name   Result" are not read as a patient.
		{
			re:     regexp.MustCompile(`(?i)\bName[ \t]*[:\-][ \t]*((?:Mrs|Mr|Ms)\.)?[ \t]*(` + namePattern + `)`),
			format: formatName,
		},
	}

	idRules = []rule{
		{re: regexp.MustCompile(`(?i)Patient\s*Id\s*[:\-.]?\s*(\d+)`), format: firstGroup},
		{re: regexp.MustCompile(`(?i)Treatment\s*Id\s*[:\-.]?\s*(\d+)`), format: firstGroup},
		{re: regexp.MustCompile(`(?i)\bId\s*[:\-.]?\s*(\d+)`), format: firstGroup},
	}

	ageGenderRules = []rule{
		{
			re: regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:Y\w*)?\s*[/\-]\s*(Male|Female|M|F)\b`),
			format: func(m []string) string {
				return m[1] + " Y / " + m[2]
			},
		},
	}

	doctorRules = []rule{
		{
			re:     regexp.MustCompile(`(?i)(?:Ref\.?\s*By|Referred\s*By)\s*[:\-.]?[ \t]*((?:Dr\.?[ \t]*)?` + namePattern + `)`),
			format: firstGroup,
		},
		{
			re:     regexp.MustCompile(`(?i)\b(Dr(?:\.[ \t]*|[ \t]+)` + namePattern + `)`),
			format: firstGroup,
		},
	}

	dateRules = []rule{
		{
			re:     regexp.MustCompile(`(?i)(?:Registered|Reported|Date)\s*(?:On)?\s*[:\-.]?\s*(\d{2}[/\-.]\d{2}[/\-.]\d{2,4})`),
			format: firstGroup,
		},
	}
)

// formatName joins the optional title with the name, dropping the label and
// separators that precede them.
func formatName(m []string) string {
	title := strings.TrimSpace(m[1])
	name := strings.TrimSpace(m[2])
	if name == "" {
		return ""
	}
	if title == "" {
		return name
	}
	return title + " " + name
}

func applyRules(raw string, rules []rule) string {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if v := r.format(m); v != "" {
			return v
		}
	}
	return Unknown
}

// ExtractMetadata reads the patient header fields out of raw document text.
// Fields are independent: a field without a match is Unknown and never
// affects the others.
func ExtractMetadata(raw string) Metadata {
	return Metadata{
		Name:         applyRules(raw, nameRules),
		ID:           applyRules(raw, idRules),
		AgeGenderRaw: applyRules(raw, ageGenderRules),
		Doctor:       applyRules(raw, doctorRules),
		Date:         applyRules(raw, dateRules),
	}
}
