// Package catalog отдаёт демонстрационные данные панелей: билеты и
// сводку администратора. Реального хранилища бронирований нет.
package catalog

import (
	"errors"
	"math"
	"strings"
)

// Типы билетов
const (
	TypeFlight = "Flight"
	TypeMovie  = "Movie"
	TypeBus    = "Bus"

	// ShowAll отключает фильтр по типу.
	ShowAll = "Show all"
)

// Ticket — карточка билета на панели пользователя.
type Ticket struct {
	ID       int               `json:"id"`
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Company  string            `json:"company"`
	Image    string            `json:"image"`
	Price    float64           `json:"price"`
	Time     string            `json:"time"`
	Date     string            `json:"date"`
	Specs    map[string]string `json:"specs"`
	Rating   float64           `json:"rating"`
	Reviews  int               `json:"reviews"`
	Featured bool              `json:"featured"`
}

var tickets = []Ticket{
	{
		ID: 1, Type: TypeFlight, Title: "Jakarta to Bali", Company: "Garuda Indonesia",
		Image: "https://images.unsplash.com/photo-1436491865332-7a61a109cc05",
		Price: 150, Time: "07:00 AM", Date: "2024-03-25",
		Specs:  map[string]string{"duration": "1h 50m", "class": "Economy", "seats": "12 seats left"},
		Rating: 4.8, Reviews: 234, Featured: true,
	},
	{
		ID: 2, Type: TypeMovie, Title: "Dune: Part Two", Company: "CGV Cinemas",
		Image: "https://images.unsplash.com/photo-1489599849927-2ee91cede3ba",
		Price: 12, Time: "15:30 PM", Date: "2024-03-20",
		Specs:  map[string]string{"duration": "2h 46m", "screen": "IMAX", "seats": "86 seats left"},
		Rating: 4.9, Reviews: 512, Featured: true,
	},
	{
		ID: 3, Type: TypeBus, Title: "Jakarta to Bandung", Company: "Executive Bus",
		Image: "https://images.unsplash.com/photo-1544620347-c4fd4a3d5957",
		Price: 25, Time: "09:00 AM", Date: "2024-03-22",
		Specs:  map[string]string{"duration": "3h 30m", "class": "Executive", "seats": "28 seats left"},
		Rating: 4.7, Reviews: 189, Featured: false,
	},
}

// Ценовые диапазоны панели, в долларах. Границы включительные.
const (
	AnyPrice    = "Any price"
	Under50     = "Under $50"
	From50To200 = "$50 - $200"
	Over200     = "$200+"
)

var priceRanges = map[string][2]float64{
	AnyPrice:    {0, math.Inf(1)},
	Under50:     {0, 50},
	From50To200: {50, 200},
	Over200:     {200, math.Inf(1)},
}

// ErrUnknownPriceRange — диапазон не из списка.
var ErrUnknownPriceRange = errors.New("catalog: unknown price range")

// Filter — параметры поиска на панели. Пустые поля не фильтруют.
type Filter struct {
	Type       string `form:"type"`
	PriceRange string `form:"price"`
	Query      string `form:"q"`
}

// Tickets возвращает билеты, прошедшие фильтр, в исходном порядке.
func Tickets(f Filter) ([]Ticket, error) {
	bounds := priceRanges[AnyPrice]
	if f.PriceRange != "" {
		b, ok := priceRanges[f.PriceRange]
		if !ok {
			return nil, ErrUnknownPriceRange
		}
		bounds = b
	}
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		if f.Type != "" && f.Type != ShowAll && t.Type != f.Type {
			continue
		}
		if t.Price < bounds[0] || t.Price > bounds[1] {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Company), query) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Stats — сводка панели администратора.
type Stats struct {
	TotalVenues    int     `json:"total_venues"`
	ActiveBookings int     `json:"active_bookings"`
	TotalUsers     int     `json:"total_users"`
	Revenue        float64 `json:"revenue"`
}

// AdminStats возвращает демонстрационную сводку.
func AdminStats() Stats {
	return Stats{TotalVenues: 128, ActiveBookings: 45, TotalUsers: 2456, Revenue: 24500}
}
