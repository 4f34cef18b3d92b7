// Package dates parses loosely-formatted Spanish date strings into a
// canonical (date, time) pair. Every HTML scraper goes through it.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/venuz/ingest/internal/models"
)

var months = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "octubre": 10, "noviembre": 11, "diciembre": 12,
	"ene": 1, "feb": 2, "mar": 3, "abr": 4,
	"may": 5, "jun": 6, "jul": 7, "ago": 8,
	"sep": 9, "oct": 10, "nov": 11, "dic": 12,
}

var (
	reWithTime  = regexp.MustCompile(`(\d{1,2})\s+([a-záéíóú]+),?\s*(\d{4})\s*-?\s*(\d{1,2}):(\d{2})\s*(am|pm)?`)
	reFull      = regexp.MustCompile(`(\d{1,2})\s+(?:de\s+)?([a-záéíóú]+)\s+(?:de\s+)?(\d{4})`)
	reNumeric   = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{4})`)
	reISO       = regexp.MustCompile(`(\d{4})[/-](\d{1,2})[/-](\d{1,2})`)
	reDayMonth  = regexp.MustCompile(`(\d{1,2})\s+(?:de\s+)?([a-záéíóú]+)`)
	reLoose     = regexp.MustCompile(`(\d{1,2})\D+(\d{1,2})\D+(\d{2,4})`)
	reSpaceRuns = regexp.MustCompile(`\s+`)
)

// Parse tries a cascade of Spanish date formats, most specific first.
// The second return value is false when nothing matched.
func Parse(s string) (*models.ParsedDate, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	cleaned := strings.TrimSpace(reSpaceRuns.ReplaceAllString(strings.ToLower(s), " "))

	// "12 febrero, 2026 - 02:00 pm"
	if m := reWithTime.FindStringSubmatch(cleaned); m != nil {
		month, ok := months[m[2]]
		if !ok {
			month = 1
		}
		hour := atoi(m[4])
		switch m[6] {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		return &models.ParsedDate{
			Date: isoDate(atoi(m[3]), month, atoi(m[1])),
			Time: fmt.Sprintf("%02d:%s:00", hour, m[5]),
		}, true
	}

	// "15 de febrero de 2026" / "15 febrero 2026"
	if m := reFull.FindStringSubmatch(cleaned); m != nil {
		month, ok := months[m[2]]
		if !ok {
			month = 1
		}
		return &models.ParsedDate{Date: isoDate(atoi(m[3]), month, atoi(m[1]))}, true
	}

	// "15/02/2026" / "15-02-2026", swapping when the month slot exceeds 12
	if m := reNumeric.FindStringSubmatch(cleaned); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if month > 12 {
			day, month = month, day
		}
		return &models.ParsedDate{Date: isoDate(atoi(m[3]), month, day)}, true
	}

	// ISO "2026-02-15"
	if m := reISO.FindStringSubmatch(cleaned); m != nil {
		return &models.ParsedDate{Date: isoDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))}, true
	}

	// "sábado 15 de febrero" — no year, assume the current one
	if m := reDayMonth.FindStringSubmatch(cleaned); m != nil {
		if month, ok := months[m[2]]; ok {
			return &models.ParsedDate{Date: isoDate(time.Now().Year(), month, atoi(m[1]))}, true
		}
	}

	// Last resort: any three numbers that look like a date
	if m := reLoose.FindStringSubmatch(cleaned); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if month > 12 && day <= 12 {
			day, month = month, day
		}
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return &models.ParsedDate{Date: isoDate(year, month, day)}, true
	}

	return nil, false
}

// ValidEventDate rejects dates more than one year in the past or two years in
// the future. Guards against misparsed garbage reaching the store.
func ValidEventDate(iso string) bool {
	d, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return false
	}
	now := time.Now()
	return !d.Before(now.AddDate(-1, 0, 0)) && !d.After(now.AddDate(2, 0, 0))
}

func isoDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
