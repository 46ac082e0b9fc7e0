package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(ts []Ticket) []int {
	out := make([]int, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestTickets_Filters(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"без фильтра", Filter{}, []int{1, 2, 3}},
		{"show all", Filter{Type: ShowAll, PriceRange: AnyPrice}, []int{1, 2, 3}},
		{"по типу", Filter{Type: TypeMovie}, []int{2}},
		{"дешевле 50", Filter{PriceRange: Under50}, []int{2, 3}},
		{"50-200", Filter{PriceRange: From50To200}, []int{1}},
		{"200+", Filter{PriceRange: Over200}, []int{}},
		{"поиск по названию", Filter{Query: "JAKARTA"}, []int{1, 3}},
		{"поиск по компании", Filter{Query: "cgv"}, []int{2}},
		{"комбинация", Filter{Type: TypeBus, PriceRange: Under50, Query: "bandung"}, []int{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Tickets(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestTickets_UnknownPriceRange(t *testing.T) {
	_, err := Tickets(Filter{PriceRange: "cheap"})
	assert.ErrorIs(t, err, ErrUnknownPriceRange)
}

func TestAdminStats(t *testing.T) {
	s := AdminStats()
	assert.Equal(t, 128, s.TotalVenues)
	assert.Equal(t, 45, s.ActiveBookings)
	assert.Equal(t, 2456, s.TotalUsers)
}
