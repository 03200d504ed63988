package series

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soltixdb/crimecast/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestIndex_KeysCrossProduct(t *testing.T) {
	idx := NewIndex(scenarioEvents())

	assert.Equal(t, []string{"ROBO"}, idx.Categories())
	assert.Equal(t, []string{"A", "B"}, idx.Districts())
	assert.Equal(t, 5, idx.Events())
	assert.Equal(t, []models.GroupKey{
		{Category: "ROBO", District: "A"},
		{Category: "ROBO", District: "B"},
	}, idx.Keys())
}

func TestIndex_IncludesNonCoOccurringPairs(t *testing.T) {
	events := []models.Event{
		event(day(2024, 1, 1), "ROBO", "A"),
		event(day(2024, 1, 1), "FRAUDE", "B"),
	}
	idx := NewIndex(events)

	keys := idx.Keys()
	assert.Len(t, keys, 4)
	assert.Equal(t, models.GroupKey{Category: "FRAUDE", District: "A"}, keys[0])
	assert.Equal(t, 0, idx.Build(keys[0]).Len())
}

func TestIndex_BuildMatchesBuild(t *testing.T) {
	events := append(scenarioEvents(),
		event(day(2024, 1, 9), "FRAUDE", "A"),
		event(day(2024, 1, 3), "FRAUDE", "A"),
		event(day(2024, 1, 3), "FRAUDE", "B"),
	)
	idx := NewIndex(events)

	for _, key := range idx.Keys() {
		want := Build(events, key.Category, key.District)
		if diff := cmp.Diff(want, idx.Build(key)); diff != "" {
			t.Errorf("%s: index build mismatch (-want +got):\n%s", key, diff)
		}
	}
}

func TestIndex_Empty(t *testing.T) {
	idx := NewIndex(nil)
	assert.Empty(t, idx.Keys())
	assert.Empty(t, idx.Categories())
}

func TestIndex_NormalizesKeys(t *testing.T) {
	events := []models.Event{
		event(day(2024, 1, 1), "Robo", "Álvaro Obregón"),
		event(day(2024, 1, 3), "ROBO", "ALVARO OBREGON"),
		event(day(2024, 1, 3), "robo", "alvaro obregon"),
	}
	idx := NewIndex(events)

	assert.Equal(t, []string{"ROBO"}, idx.Categories())
	assert.Equal(t, []string{"ALVARO OBREGON"}, idx.Districts())
	want := models.DailySeries{
		{Date: day(2024, 1, 1), Count: 1},
		{Date: day(2024, 1, 2), Count: 0},
		{Date: day(2024, 1, 3), Count: 2},
	}
	assert.Len(t, idx.Keys(), 1)
	assert.Equal(t, want, idx.Build(models.GroupKey{Category: "Robo", District: "Álvaro Obregón"}))
	assert.Equal(t, want, Build(events, "robo", "ÁLVARO OBREGÓN"))
}
