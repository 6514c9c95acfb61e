package models

// Metadata keys written to the store. Stored records predate this service,
// so the keys keep their original Polish display names.
const (
	MetaTitle     = "Nazwa"
	MetaTags      = "Tags"
	MetaThumbnail = "Thumbnail"
	MetaLocation  = "Lokalizacja"
	MetaStartDate = "Data rozpoczęcia"
	MetaEndDate   = "Data zakończenia"
	MetaWorkload  = "Wymagania nakładu pracy"
	MetaForm      = "Preferowana forma działalności"
	MetaOrganizer = "Nazwa organizatora"
)

// UnknownLocation is stored when coordinates cannot be resolved to a city.
const UnknownLocation = "Unknown"

// MultiValueSeparator joins the chosen values of a multi-select field.
const MultiValueSeparator = ", "

// Opportunity is a validated submission decoded from the request body.
type Opportunity struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Thumbnail   string   `json:"thumbnail"`
	Location    string   `json:"location,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date"`
	Workload    []string `json:"workload"`
	Form        []string `json:"form"`
	Organizer   string   `json:"organizer"`
}

// HasCoordinates reports whether both lat and lon were supplied.
func (o *Opportunity) HasCoordinates() bool {
	return o.Lat != nil && o.Lon != nil
}

// StoredRecord is a record as held by the vector store.
type StoredRecord struct {
	ID        string         `json:"id"`
	Document  string         `json:"document"`
	Metadata  map[string]any `json:"metadata"`
	Embedding []float32      `json:"-"`
}

// Match is a record returned to a query caller. Distance is only set for
// semantic queries.
type Match struct {
	ID       string         `json:"id"`
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
	Distance *float64       `json:"distance,omitempty"`
}
