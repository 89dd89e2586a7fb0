package tool

import (
	"errors"
	"fmt"
	"time"
)

// ErrToolNotFound is returned when a tool ID resolves to nothing.
var ErrToolNotFound = errors.New("tool not found")

// ErrNoPermission is returned when the placing user is not an approved
// builder of the target space.
var ErrNoPermission = errors.New("you do not have permission to place tools in this space")

// ElementType identifies the kind of interactive element inside a tool
type ElementType string

const (
	ElementPoll      ElementType = "poll"
	ElementTracker   ElementType = "tracker"
	ElementCountdown ElementType = "countdown"
	ElementLinkBoard ElementType = "link_board"
)

// PollConfig configures a poll element
type PollConfig struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	MultiSelect bool     `json:"multi_select"`
}

// TrackerConfig configures a progress-tracker element
type TrackerConfig struct {
	Label  string  `json:"label"`
	Target float64 `json:"target"`
	Unit   string  `json:"unit"`
}

// CountdownConfig configures a countdown element
type CountdownConfig struct {
	Label    string    `json:"label"`
	Deadline time.Time `json:"deadline"`
}

// LinkBoardConfig configures a pinned-links element
type LinkBoardConfig struct {
	Title string   `json:"title"`
	URLs  []string `json:"urls"`
}

// Element is one typed, configured element of a tool. Exactly one config
// field is set, matching Type.
type Element struct {
	Type      ElementType      `json:"type"`
	Poll      *PollConfig      `json:"poll,omitempty"`
	Tracker   *TrackerConfig   `json:"tracker,omitempty"`
	Countdown *CountdownConfig `json:"countdown,omitempty"`
	LinkBoard *LinkBoardConfig `json:"link_board,omitempty"`
}

// Validate checks that the element carries exactly the config its type
// requires and that the config is internally consistent.
func (e Element) Validate() error {
	switch e.Type {
	case ElementPoll:
		if e.Poll == nil {
			return fmt.Errorf("poll element missing config")
		}
		if e.Poll.Question == "" {
			return fmt.Errorf("poll element missing question")
		}
		if len(e.Poll.Options) < 2 {
			return fmt.Errorf("poll element needs at least two options")
		}
	case ElementTracker:
		if e.Tracker == nil {
			return fmt.Errorf("tracker element missing config")
		}
		if e.Tracker.Label == "" {
			return fmt.Errorf("tracker element missing label")
		}
		if e.Tracker.Target <= 0 {
			return fmt.Errorf("tracker element target must be positive")
		}
	case ElementCountdown:
		if e.Countdown == nil {
			return fmt.Errorf("countdown element missing config")
		}
		if e.Countdown.Deadline.IsZero() {
			return fmt.Errorf("countdown element missing deadline")
		}
	case ElementLinkBoard:
		if e.LinkBoard == nil {
			return fmt.Errorf("link board element missing config")
		}
		if len(e.LinkBoard.URLs) == 0 {
			return fmt.Errorf("link board element needs at least one url")
		}
	default:
		return fmt.Errorf("unknown element type %q", e.Type)
	}
	return nil
}

// Tool is a configurable widget placed into a space by a builder
type Tool struct {
	ID               string
	SpaceID          string
	Name             string
	CreatedBy        string
	Elements         []Element
	IsActive         bool
	InteractionCount int
	SurgeScore       float64
	LastInteraction  *time.Time
	PlacedAt         time.Time
}

// Draft is the caller-supplied portion of a tool placement
type Draft struct {
	Name     string    `json:"name"`
	Elements []Element `json:"elements"`
}

// Validate checks a draft before placement.
func (d Draft) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("tool needs a name")
	}
	if len(d.Elements) == 0 {
		return fmt.Errorf("tool needs at least one element")
	}
	for i, el := range d.Elements {
		if err := el.Validate(); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}
