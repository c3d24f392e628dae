// README: Tests for model-output cleanup helpers.
package ai

import "testing"

func TestNormalizeIntentLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"create_reservation", IntentCreateReservation},
		{"  CHECK_AVAILABILITY ", IntentCheckAvailability},
		{"intent: cancel_reservation", IntentCancelReservation},
		{"intenção: restaurant_faq", IntentRestaurantFAQ},
		{"the intent is view_next_reservation", IntentViewNextReservation},
		{"greeting", IntentNone},
		{"", IntentNone},
	}
	for _, tc := range cases {
		if got := normalizeIntentLabel(tc.in); got != tc.want {
			t.Errorf("normalizeIntentLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCleanJSONString(t *testing.T) {
	in := "```json\n{\"intent\": \"none\"}\n```"
	want := `{"intent": "none"}`
	if got := cleanJSONString(in); got != want {
		t.Errorf("cleanJSONString = %q, want %q", got, want)
	}
	if got := cleanJSONString(`{"a":1}`); got != `{"a":1}` {
		t.Errorf("plain JSON mangled: %q", got)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"date": null}`, `{"date": null}`},
		{"Segue o JSON:\n{\"date\": \"hoje\"}\nEspero ter ajudado.", `{"date": "hoje"}`},
		{"```json\n{\"time\": \"20:00\"}\n```", `{"time": "20:00"}`},
		{"sem json aqui", "sem json aqui"},
	}
	for _, tc := range cases {
		if got := extractJSONObject(tc.in); got != tc.want {
			t.Errorf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
