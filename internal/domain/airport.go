package domain

type Airport struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IATACode string `json:"iata_code"`
	City     string `json:"city"`
	Country  string `json:"country"`
}

// AirportField names a single updatable airport column.
type AirportField string

const (
	AirportFieldName     AirportField = "name"
	AirportFieldIATACode AirportField = "iatacode"
	AirportFieldCity     AirportField = "city"
	AirportFieldCountry  AirportField = "country"
)

type AirportPage struct {
	Airports    []Airport `json:"airports"`
	CurrentPage int       `json:"current_page"`
	PageSize    int       `json:"page_size"`
	Total       int64     `json:"total"`
	TotalPages  int       `json:"total_pages"`
}

// TotalPages is ceil(total/limit); zero when limit is not positive.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	l := int64(limit)
	return int((total + l - 1) / l)
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int64  `json:"count"`
}

// AirportRemoval is what a delete reports back: the freed id and how many
// historical flights went with it.
type AirportRemoval struct {
	AirportID     int64
	PurgedFlights int64
}
