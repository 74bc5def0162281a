package models

// WeatherRecord is one observation of current conditions for a city.
// Country is shown to the user but not persisted.
type WeatherRecord struct {
	City        string  `json:"city"`
	Country     string  `json:"country,omitempty"`
	Temperature float64 `json:"temperature"`
	Humidity    int     `json:"humidity"`
	Description string  `json:"description"`
}

// Stats aggregates every record found in the flat file.
type Stats struct {
	Count   int
	Entries []WeatherRecord
	Average float64
}
