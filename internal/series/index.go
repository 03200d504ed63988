package series

import (
	"sort"
	"time"

	"github.com/soltixdb/crimecast/internal/models"
	"github.com/soltixdb/crimecast/internal/normalize"
)

// Index partitions the incident table once by GroupKey so each series can
// be built without rescanning every event. It is read-only after NewIndex
// and safe for concurrent use.
type Index struct {
	groups     map[models.GroupKey]map[time.Time]int
	categories []string
	districts  []string
	events     int
}

// NewIndex counts events per normalized GroupKey and calendar day
func NewIndex(events []models.Event) *Index {
	idx := &Index{
		groups: make(map[models.GroupKey]map[time.Time]int),
		events: len(events),
	}

	categories := make(map[string]struct{})
	districts := make(map[string]struct{})
	for _, e := range events {
		key := models.GroupKey{
			Category: normalize.String(e.Category),
			District: normalize.String(e.District),
		}
		categories[key.Category] = struct{}{}
		districts[key.District] = struct{}{}

		days, ok := idx.groups[key]
		if !ok {
			days = make(map[time.Time]int)
			idx.groups[key] = days
		}
		days[models.CalendarDay(e.Date)]++
	}

	idx.categories = sortedKeys(categories)
	idx.districts = sortedKeys(districts)
	return idx
}

// Categories returns the distinct categories in ascending order
func (idx *Index) Categories() []string {
	return idx.categories
}

// Districts returns the distinct districts in ascending order
func (idx *Index) Districts() []string {
	return idx.districts
}

// Events returns the number of indexed events
func (idx *Index) Events() int {
	return idx.events
}

// Keys returns the full category x district cross product, category-major.
// Pairs that never co-occur are included.
func (idx *Index) Keys() []models.GroupKey {
	keys := make([]models.GroupKey, 0, len(idx.categories)*len(idx.districts))
	for _, c := range idx.categories {
		for _, d := range idx.districts {
			keys = append(keys, models.GroupKey{Category: c, District: d})
		}
	}
	return keys
}

// Build returns the same series as Build(events, key.Category, key.District)
func (idx *Index) Build(key models.GroupKey) models.DailySeries {
	key.Category, key.District = normalize.String(key.Category), normalize.String(key.District)
	return densify(idx.groups[key])
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
