package insight

import (
	"fmt"
	"html"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/labresult"
)

// StableMessage is the whole narrative when every result is Normal.
const StableMessage = "✅ <span class='hl-brand'>All Systems Stable.</span> Comprehensive review shows all extracted biomarkers are within optimal ranges."

const (
	paragraphBreak  = "<br><br>"
	maxWarningNames = 4
)

// Synthesize builds the report summary. It names tests but never quotes a
// value. Test names are HTML-escaped since the output is markup.
func Synthesize(results []labresult.TestResult) string {
	var critical, warning []string
	for _, r := range results {
		switch {
		case r.Status.IsCritical():
			critical = append(critical, html.EscapeString(r.Name))
		case r.Status.IsAbnormal():
			warning = append(warning, html.EscapeString(r.Name))
		}
	}

	if len(critical) == 0 && len(warning) == 0 {
		return StableMessage
	}

	lines := make([]string, 0, 2)
	if len(critical) > 0 {
		bold := make([]string, len(critical))
		for i, name := range critical {
			bold[i] = "<b>" + name + "</b>"
		}
		lines = append(lines, fmt.Sprintf(
			"<span class='hl-crit'>CRITICAL ALERT:</span> Severe deviations found in %s. Immediate clinical review is strongly recommended.",
			strings.Join(bold, ", "),
		))
	}

	if len(warning) > 0 {
		shown := warning
		suffix := ""
		if rest := len(warning) - maxWarningNames; rest > 0 {
			shown = warning[:maxWarningNames]
			suffix = fmt.Sprintf(" and %d others", rest)
		}
		lines = append(lines, fmt.Sprintf(
			"<b>Observation:</b> Mild variations detected in %s%s. These may require routine monitoring or lifestyle adjustments.",
			strings.Join(shown, ", "), suffix,
		))
	}

	return strings.Join(lines, paragraphBreak)
}
