package wards

// Ward is one of Chicago's 50 city council wards
type Ward struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Alderman     Alderman     `json:"alderman"`
	Demographics Demographics `json:"demographics"`
	Events       []Event      `json:"events"`
}

// Alderman is the elected council member representing a ward
type Alderman struct {
	Name       string   `json:"name"`
	Party      string   `json:"party"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Office     string   `json:"office"`
	Image      string   `json:"image"`
	Biography  string   `json:"biography"`
	Platforms  []string `json:"platforms"`
	Committees []string `json:"committees"`
}

// Demographics holds summary figures for a ward
type Demographics struct {
	Population   int    `json:"population"`
	Area         string `json:"area"`
	MedianIncome string `json:"medianIncome"`
}

// Event is a community event hosted in a ward
type Event struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	Description string `json:"description"`
}
