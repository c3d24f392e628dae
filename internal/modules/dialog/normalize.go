// README: Canonicalization of PT-BR date and time expressions.
package dialog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terça":   time.Tuesday,
	"terca":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sábado":  time.Saturday,
	"sabado":  time.Saturday,
}

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	brDateRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	hourRe    = regexp.MustCompile(`^(\d{1,2})(?:[:h](\d{2})?)?$`)
)

// NormalizeDate resolves relative PT-BR date expressions ("hoje", "amanhã",
// "sábado", "10/03") into YYYY-MM-DD. Unrecognized input is returned as-is;
// the booking API will reject it and the user gets re-asked.
func NormalizeDate(raw string, now time.Time) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}
	if isoDateRe.MatchString(text) {
		return text
	}

	switch text {
	case "hoje":
		return now.Format("2006-01-02")
	case "amanhã", "amanha":
		return now.AddDate(0, 0, 1).Format("2006-01-02")
	case "depois de amanhã", "depois de amanha":
		return now.AddDate(0, 0, 2).Format("2006-01-02")
	}

	if m := brDateRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		// A day/month without a year that already passed means next year.
		if m[3] == "" && d.Before(now.AddDate(0, 0, -1)) {
			d = d.AddDate(1, 0, 0)
		}
		return d.Format("2006-01-02")
	}

	for name, wd := range weekdays {
		if strings.Contains(text, name) {
			days := (int(wd) - int(now.Weekday()) + 7) % 7
			if days == 0 && !strings.Contains(text, "hoje") {
				days = 7
			}
			return now.AddDate(0, 0, days).Format("2006-01-02")
		}
	}
	return strings.TrimSpace(raw)
}

// NormalizeTime resolves PT-BR time expressions ("20h", "19:30", "no
// almoço", "meio-dia") into HH:MM. Unrecognized input is returned as-is.
func NormalizeTime(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return ""
	}

	switch {
	case strings.Contains(text, "meio-dia"), strings.Contains(text, "meio dia"):
		return "12:00"
	case strings.Contains(text, "almoço"), strings.Contains(text, "almoco"):
		return "12:00"
	case strings.Contains(text, "jantar"), strings.Contains(text, "noite"):
		return "20:00"
	case strings.Contains(text, "manhã"), strings.Contains(text, "manha"):
		return "09:00"
	case strings.Contains(text, "tarde"):
		return "15:00"
	}

	text = strings.TrimPrefix(text, "às ")
	text = strings.TrimPrefix(text, "as ")
	text = strings.TrimSuffix(text, " horas")
	text = strings.TrimSuffix(text, "hs")
	if m := hourRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59 {
			return fmt.Sprintf("%02d:%02d", hour, minute)
		}
	}
	return strings.TrimSpace(raw)
}
