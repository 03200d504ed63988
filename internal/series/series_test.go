package series

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/soltixdb/crimecast/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func event(date time.Time, category, district string) models.Event {
	return models.Event{Date: date, Category: category, District: district}
}

func scenarioEvents() []models.Event {
	return []models.Event{
		event(day(2024, 1, 1), "ROBO", "A"),
		event(day(2024, 1, 2), "ROBO", "A"),
		event(day(2024, 1, 2), "ROBO", "A"),
		event(day(2024, 1, 4), "ROBO", "A"),
		event(day(2024, 1, 1), "ROBO", "B"),
	}
}

func TestBuild_Scenario(t *testing.T) {
	got := Build(scenarioEvents(), "ROBO", "A")

	want := models.DailySeries{
		{Date: day(2024, 1, 1), Count: 1},
		{Date: day(2024, 1, 2), Count: 2},
		{Date: day(2024, 1, 3), Count: 0},
		{Date: day(2024, 1, 4), Count: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}

	single := Build(scenarioEvents(), "ROBO", "B")
	if single.Len() != 1 || single[0].Count != 1 {
		t.Errorf("Expected single-day series, got %+v", single)
	}
}

func TestBuild_Empty(t *testing.T) {
	got := Build(scenarioEvents(), "FRAUDE", "A")
	if got == nil || got.Len() != 0 {
		t.Errorf("Expected empty non-nil series, got %#v", got)
	}

	if Build(nil, "ROBO", "A").Len() != 0 {
		t.Error("Expected empty series for no events")
	}
}

func TestBuild_UnorderedAndTimeOfDay(t *testing.T) {
	events := []models.Event{
		event(time.Date(2024, 3, 5, 22, 15, 0, 0, time.UTC), "ROBO", "A"),
		event(time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), "ROBO", "A"),
		event(time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC), "ROBO", "A"),
	}

	got := Build(events, "ROBO", "A")
	want := models.DailySeries{
		{Date: day(2024, 3, 3), Count: 1},
		{Date: day(2024, 3, 4), Count: 0},
		{Date: day(2024, 3, 5), Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_CrossesMonthAndLeapDay(t *testing.T) {
	events := []models.Event{
		event(day(2024, 2, 27), "ROBO", "A"),
		event(day(2024, 3, 2), "ROBO", "A"),
	}

	got := Build(events, "ROBO", "A")
	if got.Len() != 5 {
		t.Fatalf("Expected 5 days (27, 28, 29 Feb, 1, 2 Mar), got %d", got.Len())
	}
	if !got[2].Date.Equal(day(2024, 2, 29)) {
		t.Errorf("Expected leap day at index 2, got %v", got[2].Date)
	}
}

// Contiguity and count conservation over random tables
func TestBuild_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"ROBO", "FRAUDE", "LESIONES"}
	districts := []string{"A", "B", "C", "D"}
	start := day(2023, 12, 20)

	for round := 0; round < 50; round++ {
		n := rng.Intn(200)
		events := make([]models.Event, n)
		for i := range events {
			events[i] = event(
				start.AddDate(0, 0, rng.Intn(40)),
				categories[rng.Intn(len(categories))],
				districts[rng.Intn(len(districts))],
			)
		}

		for _, c := range categories {
			for _, d := range districts {
				matching := 0
				var minDay, maxDay time.Time
				for _, e := range events {
					if e.Category != c || e.District != d {
						continue
					}
					if matching == 0 || e.Date.Before(minDay) {
						minDay = e.Date
					}
					if matching == 0 || e.Date.After(maxDay) {
						maxDay = e.Date
					}
					matching++
				}

				s := Build(events, c, d)
				if matching == 0 {
					if s.Len() != 0 {
						t.Fatalf("round %d %s/%s: expected empty series", round, c, d)
					}
					continue
				}

				wantLen := daysBetween(minDay, maxDay) + 1
				if s.Len() != wantLen {
					t.Fatalf("round %d %s/%s: len %d, want %d", round, c, d, s.Len(), wantLen)
				}
				if s.Total() != matching {
					t.Fatalf("round %d %s/%s: total %d, want %d", round, c, d, s.Total(), matching)
				}
				for i := 1; i < s.Len(); i++ {
					if !s[i].Date.Equal(s[i-1].Date.AddDate(0, 0, 1)) {
						t.Fatalf("round %d %s/%s: gap between %v and %v", round, c, d, s[i-1].Date, s[i].Date)
					}
				}
			}
		}
	}
}
