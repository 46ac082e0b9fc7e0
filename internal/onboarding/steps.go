package onboarding

// StepType определяет, к какой группе предпочтений относится шаг.
type StepType string

const (
	StepWelcome       StepType = "welcome"
	StepPurpose       StepType = "purpose"
	StepTravel        StepType = "travel"
	StepEntertainment StepType = "entertainment"
)

// Option — вариант выбора на шаге.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

// Step описывает один экран мастера.
type Step struct {
	Number      int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Type        StepType `json:"type"`
	Options     []Option `json:"options,omitempty"`
}

// HasOption сообщает, есть ли на шаге вариант id.
func (s Step) HasOption(id string) bool {
	for _, o := range s.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Steps — фиксированная последовательность из четырёх шагов.
var Steps = []Step{
	{
		Number:      1,
		Title:       "Welcome to BookItNow",
		Description: "Let's get started with a few quick questions to help us personalize your experience.",
		Image:       "https://images.unsplash.com/photo-1436491865332-7a61a109cc05",
		Type:        StepWelcome,
	},
	{
		Number:      2,
		Title:       "What are you looking for?",
		Description: "Help us understand your needs better.",
		Image:       "https://images.unsplash.com/photo-1544620347-c4fd4a3d5957",
		Type:        StepPurpose,
		Options: []Option{
			{ID: "flights", Label: "Book Flights", Icon: "✈️", Description: "Looking to book flights"},
			{ID: "buses", Label: "Book Buses", Icon: "🚌", Description: "Interested in bus travel"},
			{ID: "movies", Label: "Book Movies", Icon: "🎬", Description: "Want to book movie tickets"},
		},
	},
	{
		Number:      3,
		Title:       "Travel Preferences",
		Description: "Select your preferred travel options.",
		Image:       "https://images.unsplash.com/photo-1600047509807-ba8f99d2cdde",
		Type:        StepTravel,
		Options: []Option{
			{ID: "domestic", Label: "Domestic", Icon: "🏠", Description: "Travel within the country"},
			{ID: "international", Label: "International", Icon: "🌎", Description: "Travel abroad"},
			{ID: "business", Label: "Business", Icon: "💼", Description: "Business travel"},
			{ID: "leisure", Label: "Leisure", Icon: "🏖️", Description: "Leisure travel"},
		},
	},
	{
		Number:      4,
		Title:       "Entertainment Preferences",
		Description: "What kind of movies do you enjoy?",
		Image:       "https://images.unsplash.com/photo-1489599849927-2ee91cede3ba",
		Type:        StepEntertainment,
		Options: []Option{
			{ID: "action", Label: "Action", Icon: "💥", Description: "Action & Adventure"},
			{ID: "comedy", Label: "Comedy", Icon: "😄", Description: "Comedy & Fun"},
			{ID: "drama", Label: "Drama", Icon: "🎭", Description: "Drama & Emotional"},
			{ID: "scifi", Label: "Sci-Fi", Icon: "🚀", Description: "Science Fiction & Fantasy"},
		},
	},
}
