package patient

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain"
)

// DefaultAge is assumed when the age/gender text carries no number.
const DefaultAge = 30

// Demographics selects the reference range stratum for a patient. SexBoth
// means the sex is unknown.
type Demographics struct {
	Age int        `json:"age"`
	Sex domain.Sex `json:"sex"`
}

var agePattern = regexp.MustCompile(`\d{1,3}`)

// ResolveDemographics turns the printed age/gender text into an age and sex.
// It never fails: missing parts fall back to DefaultAge and SexBoth.
func ResolveDemographics(ageGenderRaw string) Demographics {
	d := Demographics{Age: DefaultAge, Sex: domain.SexBoth}

	if m := agePattern.FindString(ageGenderRaw); m != "" {
		if age, err := strconv.Atoi(m); err == nil {
			d.Age = age
		}
	}

	// "female" contains "male", so it has to be checked first.
	lower := strings.ToLower(ageGenderRaw)
	switch {
	case strings.Contains(lower, "female"):
		d.Sex = domain.SexFemale
	case strings.Contains(lower, "male"):
		d.Sex = domain.SexMale
	}

	return d
}
