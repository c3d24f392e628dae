// README: PT-BR date/time normalization tests.
package dialog

import (
	"testing"
	"time"
)

func TestNormalizeDate(t *testing.T) {
	// A Tuesday.
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)

	cases := []struct {
		in   string
		want string
	}{
		{"hoje", "2026-09-01"},
		{"Amanhã", "2026-09-02"},
		{"amanha", "2026-09-02"},
		{"depois de amanhã", "2026-09-03"},
		{"2026-09-10", "2026-09-10"},
		{"10/09/2026", "2026-09-10"},
		{"10/09", "2026-09-10"},
		{"15/3", "2027-03-15"}, // already passed this year, rolls forward
		{"sábado", "2026-09-05"},
		{"sabado", "2026-09-05"},
		{"segunda", "2026-09-07"},
		{"terça", "2026-09-08"}, // same weekday as now means next week
		{"qualquer coisa", "qualquer coisa"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDate(tc.in, now); got != tc.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeTime(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"20h", "20:00"},
		{"20h30", "20:30"},
		{"19:30", "19:30"},
		{"às 21h", "21:00"},
		{"8", "08:00"},
		{"no almoço", "12:00"},
		{"jantar", "20:00"},
		{"à noite", "20:00"},
		{"meio-dia", "12:00"},
		{"meio dia", "12:00"},
		{"de manhã", "09:00"},
		{"café da manhã", "09:00"},
		{"de tarde", "15:00"},
		{"25h", "25h"}, // out of range stays raw
		{"quando der", "quando der"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeTime(tc.in); got != tc.want {
			t.Errorf("NormalizeTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
