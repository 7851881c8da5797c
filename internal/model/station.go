package model

// Station statuses
const (
	StationActive   = "active"
	StationInactive = "inactive"
)

// Station represents a departure/arrival terminal
type Station struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Personnel string `json:"personnel"`
	PhoneNo   string `json:"phoneno"`
	City      string `json:"city"`
	Address   string `json:"address"`
	Status    string `json:"status"`
}

// Announcement represents a news item shown on the landing page
type Announcement struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}
