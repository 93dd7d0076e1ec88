package pubmed

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	yearRe  = regexp.MustCompile(`\b\d{4}\b`)
	orcidRe = regexp.MustCompile(`(?:^|\D)(\d{4})-?(\d{4})-?(\d{4})-?(\d{4})(?:\D|$)`)
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)+`)

	electronicAddressRe = regexp.MustCompile(`(?i)electronic\s+address\s*:?`)
	emptyParensRe       = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
	spaceBeforePunctRe  = regexp.MustCompile(`\s+([.,;:])`)
	repeatedPunctRe     = regexp.MustCompile(`([.,;:])[.,;:]+`)
)

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// ParseMonth versteht "1".."12" sowie englische Abkürzungen in beliebiger Schreibweise.
func ParseMonth(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 1 && n <= 12
	}
	if len(s) < 3 {
		return 0, false
	}
	m, ok := months[strings.ToLower(s[:3])]
	return m, ok
}

// AssembleDate baut ein Datum nur, wenn alle drei Teile vorhanden sind.
// Fehlt ein Teil, ist das Ergebnis nil ohne Fehler; ist das Datum ungültig,
// ist das Ergebnis nil mit Fehler (zum Loggen, nicht zum Abbrechen).
func AssembleDate(year, month, day *string) (*time.Time, error) {
	if year == nil || month == nil || day == nil {
		return nil, nil
	}
	y, err := strconv.Atoi(strings.TrimSpace(*year))
	if err != nil {
		return nil, fmt.Errorf("invalid year %q", *year)
	}
	m, ok := ParseMonth(*month)
	if !ok {
		return nil, fmt.Errorf("invalid month %q", *month)
	}
	d, err := strconv.Atoi(strings.TrimSpace(*day))
	if err != nil {
		return nil, fmt.Errorf("invalid day %q", *day)
	}
	return dateOf(y, m, d)
}

func dateOf(y, m, d int) (*time.Time, error) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return nil, fmt.Errorf("invalid calendar date %04d-%02d-%02d", y, m, d)
	}
	return &t, nil
}

// YearFromMedlineDate nimmt die größte vierstellige Zahl aus einem Freitextdatum,
// z.B. "1998 Dec-1999 Jan" -> 1999.
func YearFromMedlineDate(s string) *int {
	var best *int
	for _, m := range yearRe.FindAllString(s, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if best == nil || y > *best {
			best = &y
		}
	}
	return best
}

// ParseYN: "Y" -> true, "N" -> false, alles andere -> nil.
func ParseYN(s *string) *bool {
	if s == nil {
		return nil
	}
	var v bool
	switch strings.TrimSpace(*s) {
	case "Y":
		v = true
	case "N":
		v = false
	default:
		return nil
	}
	return &v
}

// NormalizeORCID extrahiert eine 16-stellige ORCID (auch aus einer URL) und
// gibt sie als dddd-dddd-dddd-dddd zurück. Alles andere wird verworfen.
func NormalizeORCID(raw *string) *string {
	if raw == nil {
		return nil
	}
	m := orcidRe.FindStringSubmatch(*raw)
	if m == nil {
		return nil
	}
	v := strings.Join(m[1:], "-")
	return &v
}

// ExtractEmail gibt die erste eingebettete E-Mail-Adresse und den bereinigten
// Affiliation-Text zurück. Alle Adressen und ein "Electronic address:" werden entfernt.
func ExtractEmail(text string) (*string, string) {
	found := emailRe.FindAllString(text, -1)
	if len(found) == 0 {
		return nil, text
	}
	email := strings.TrimRight(found[0], ".-")

	cleaned := emailRe.ReplaceAllString(text, "")
	cleaned = electronicAddressRe.ReplaceAllString(cleaned, "")
	cleaned = emptyParensRe.ReplaceAllString(cleaned, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = spaceBeforePunctRe.ReplaceAllString(cleaned, "$1")
	cleaned = repeatedPunctRe.ReplaceAllString(cleaned, "$1")
	cleaned = strings.Trim(cleaned, " ,;:")
	if cleaned == "." {
		cleaned = ""
	}
	return &email, cleaned
}

// EnumValue normalisiert Attributwerte wie "Print-Electronic" zu "print_electronic".
func EnumValue(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	v = strings.NewReplacer("-", "_", " ", "_").Replace(v)
	if v == "" {
		return nil
	}
	return &v
}

var abstractCategories = map[string]bool{
	"background": true, "objective": true, "methods": true,
	"results": true, "conclusions": true, "unassigned": true,
}

// AbstractCategory bildet NlmCategory ab, Unbekanntes wird "unassigned".
func AbstractCategory(s *string) string {
	v := EnumValue(s)
	if v == nil || !abstractCategories[*v] {
		return "unassigned"
	}
	return *v
}
