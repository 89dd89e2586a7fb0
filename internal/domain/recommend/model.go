package recommend

import "time"

// ItemType identifies what kind of item a recommendation points at
type ItemType string

const (
	ItemEvent  ItemType = "event"
	ItemSpace  ItemType = "space"
	ItemPerson ItemType = "person"
)

// Recommendation is one ranked entry in a user's recommendation list.
// Lists are fully regenerated each run; individual rows are never patched.
type Recommendation struct {
	ID          string
	UserID      string
	ItemID      string
	ItemType    ItemType
	Score       float64
	Reasons     []string
	Rank        int
	GeneratedAt time.Time
}

// Event is a recommendation candidate sourced from the campus event feed
type Event struct {
	ID         string
	Title      string
	Tags       []string
	HostOrgID  string
	StartsAt   time.Time
	Popularity int
}
