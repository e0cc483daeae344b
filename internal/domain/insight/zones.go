package insight

import (
	"strings"

	"github.com/dmehra2102/prod-golang-projects/labinsight/internal/domain/labresult"
)

// BodyZone is a coarse body system a biomarker reports on.
type BodyZone string

const (
	ZoneHeart  BodyZone = "heart"
	ZoneLiver  BodyZone = "liver"
	ZoneKidney BodyZone = "kidney"
	ZoneBlood  BodyZone = "blood"
	ZoneBone   BodyZone = "bone"
	ZoneNeuro  BodyZone = "neuro"
)

// AllZones lists every zone in display order.
var AllZones = []BodyZone{ZoneHeart, ZoneLiver, ZoneKidney, ZoneBlood, ZoneBone, ZoneNeuro}

type zoneKeywords struct {
	zone     BodyZone
	keywords []string
}

// zoneTable is checked top to bottom for every result, so when one name hits
// several zones they activate in this order.
var zoneTable = []zoneKeywords{
	{ZoneLiver, []string{"liver", "sgot", "sgpt", "bilirubin", "alkaline", "ggt"}},
	{ZoneKidney, []string{"kidney", "creatinine", "urea", "uric", "bun", "protein"}},
	{ZoneHeart, []string{"cholesterol", "triglyceride", "hdl", "ldl", "lipid", "cardio"}},
	{ZoneBlood, []string{"haemoglobin", "hemoglobin", "rbc", "wbc", "platelet", "mcv", "mch"}},
	{ZoneBone, []string{"calcium", "vitamin d", "vit d", "phosphate", "rheumatoid"}},
	{ZoneNeuro, []string{"b12", "thyroid", "tsh", "t3", "t4"}},
}

// ZonesFor returns the zones whose keywords occur in testName.
func ZonesFor(testName string) []BodyZone {
	name := strings.ToLower(testName)

	var zones []BodyZone
	for _, zk := range zoneTable {
		for _, kw := range zk.keywords {
			if strings.Contains(name, kw) {
				zones = append(zones, zk.zone)
				break
			}
		}
	}
	return zones
}

// MapZones returns the zones touched by the given abnormal results in order of
// first activation, without duplicates. Callers pass the abnormal subset;
// Normal results are ignored here as well.
func MapZones(abnormal []labresult.TestResult) []BodyZone {
	seen := make(map[BodyZone]bool, len(zoneTable))
	zones := make([]BodyZone, 0, len(zoneTable))

	for _, r := range abnormal {
		if !r.Status.IsAbnormal() {
			continue
		}
		for _, z := range ZonesFor(r.Name) {
			if !seen[z] {
				seen[z] = true
				zones = append(zones, z)
			}
		}
	}
	return zones
}

// Activated reports, for every zone in AllZones, whether it is in zones.
func Activated(zones []BodyZone) map[BodyZone]bool {
	out := make(map[BodyZone]bool, len(AllZones))
	for _, z := range AllZones {
		out[z] = false
	}
	for _, z := range zones {
		out[z] = true
	}
	return out
}
