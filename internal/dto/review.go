package dto

// ReviewView is the read-only, display-formatted rendering of an analysis.
// Every field is ready to print; missing values carry a placeholder.
type ReviewView struct {
	ListingURL      string   `json:"listing_url"`
	Title           string   `json:"title"`
	PropertyType    string   `json:"property_type"`
	TotalArea       string   `json:"total_area"`
	Street          string   `json:"street"`
	Location        string   `json:"location"`
	InitialBidValue string   `json:"initial_bid_value"`
	CurrentValue    string   `json:"current_value"`
	Discount        string   `json:"discount"`
	StartDate       string   `json:"start_date"`
	AuctionType     string   `json:"auction_type"`
	EndDate         string   `json:"end_date"`
	Images          []string `json:"images"`
	Documents       []string `json:"documents"`
	Recommendations []string `json:"recommendations"`
}
