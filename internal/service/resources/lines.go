package resources

import "strings"

// Global is the locale code used when none is configured.
const Global = "GLOBAL"

// Keep these conservative. Phone numbers and organisations change; verify before deployment.
var generalLines = []string{
	"If you are in immediate danger or thinking about harming yourself or others, call your local emergency number now (e.g., 112 in India, 999 in the UK, 911 in the US) or go to the nearest emergency department.",
	"Consider reaching out to a trusted friend, family member, or school counselor right away.",
}

var countryLines = map[string][]string{
	"IN": {
		"India: You can contact your local emergency services by dialing 112.",
		"For counseling support, check government or university mental health services in your area.",
	},
	"IE": {
		"Ireland: In an emergency, dial 112 or 999.",
		"HSE and university counseling services provide support; verify local numbers on official sites.",
	},
	"DE": {
		"Germany: For emergencies, dial 112.",
		"Consider local crisis lines or university counseling centers (numbers vary by region).",
	},
}

const safetyBanner = "You matter. If you’re in immediate danger or thinking about harming yourself or others, " +
	"call your local emergency number now (e.g., 112 in India, 999 in the UK, 911 in the US) or go to the nearest emergency department. " +
	"Consider telling a trusted person nearby."

// Normalize upper-cases a locale code, mapping blank to Global.
func Normalize(countryCode string) string {
	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if cc == "" {
		return Global
	}
	return cc
}

// EmergencyLines returns the general advisory lines followed by any
// country-specific ones. Unknown codes get the general list only.
func EmergencyLines(countryCode string) []string {
	lines := append([]string(nil), generalLines...)
	return append(lines, countryLines[Normalize(countryCode)]...)
}

// SafetyBanner returns the static crisis banner shown alongside a reply.
func SafetyBanner(_ string) string {
	return safetyBanner
}

// Directory binds lookups to a default locale.
type Directory struct {
	countryCode string
}

// NewDirectory returns a Directory defaulting to countryCode.
func NewDirectory(countryCode string) *Directory {
	return &Directory{countryCode: Normalize(countryCode)}
}

// CountryCode returns the default locale.
func (d *Directory) CountryCode() string {
	return d.countryCode
}

// EmergencyLines resolves lines for countryCode, or the default when blank.
func (d *Directory) EmergencyLines(countryCode string) []string {
	return EmergencyLines(d.resolve(countryCode))
}

// SafetyBanner resolves the banner for countryCode, or the default when blank.
func (d *Directory) SafetyBanner(countryCode string) string {
	return SafetyBanner(d.resolve(countryCode))
}

func (d *Directory) resolve(countryCode string) string {
	if strings.TrimSpace(countryCode) == "" {
		return d.countryCode
	}
	return Normalize(countryCode)
}
