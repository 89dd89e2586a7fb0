// internal/service/space/templates.go

package space

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hive/internal/domain/space"
)

// Template describes how a space of a given type is provisioned:
// its default tool set and whether it must be claimed before builders
// can be approved for it.
type Template struct {
	SpaceType     space.SpaceType
	DefaultTools  []string
	ClaimRequired bool
	TopicTags     []string
}

// templates covers every space type. Academic and residential spaces are
// pre-seeded from campus records and must be claimed; org spaces are
// claimed by their officers; community and hive-exclusive spaces are
// user- or staff-initiated.
var templates = map[space.SpaceType]Template{
	space.TypeAcademic: {
		SpaceType:     space.TypeAcademic,
		DefaultTools:  []string{"announcements", "study_groups"},
		ClaimRequired: true,
		TopicTags:     []string{"academic"},
	},
	space.TypeResidential: {
		SpaceType:     space.TypeResidential,
		DefaultTools:  []string{"announcements", "floor_events"},
		ClaimRequired: true,
		TopicTags:     []string{"residential"},
	},
	space.TypeOrg: {
		SpaceType:     space.TypeOrg,
		DefaultTools:  []string{"announcements", "member_roster", "event_calendar"},
		ClaimRequired: true,
		TopicTags:     []string{"org"},
	},
	space.TypeCommunity: {
		SpaceType:    space.TypeCommunity,
		DefaultTools: []string{"announcements"},
		TopicTags:    []string{"community"},
	},
	space.TypeHiveExclusive: {
		SpaceType:    space.TypeHiveExclusive,
		DefaultTools: []string{"announcements", "drops"},
		TopicTags:    []string{"hive"},
	},
}

// TemplateFor returns the provisioning template for a space type.
func TemplateFor(t space.SpaceType) (Template, bool) {
	tpl, ok := templates[t]
	return tpl, ok
}

// Provision creates a new space of the given type in the created state.
// The space stays in created until an approved builder places the first
// tool.
func (m *Manager) Provision(ctx context.Context, name, description string, spaceType space.SpaceType) (*space.Space, error) {
	tpl, ok := TemplateFor(spaceType)
	if !ok {
		return nil, fmt.Errorf("unknown space type %q", spaceType)
	}

	claim := space.ClaimNotRequired
	if tpl.ClaimRequired {
		claim = space.ClaimUnclaimed
	}

	s := space.Space{
		ID:             uuid.New().String(),
		Name:           name,
		Description:    description,
		SpaceType:      spaceType,
		LifecycleState: space.StateCreated,
		ClaimStatus:    claim,
		DefaultTools:   append([]string(nil), tpl.DefaultTools...),
		TopicTags:      append([]string(nil), tpl.TopicTags...),
		CreatedAt:      time.Now(),
	}

	if err := m.store.SaveSpace(ctx, s); err != nil {
		return nil, fmt.Errorf("error saving space: %w", err)
	}

	m.notifier.PublishEvent(fmt.Sprintf("%s.%s.created", m.config.EventsTopic, s.ID), map[string]interface{}{
		"space_id":   s.ID,
		"space_type": spaceType,
		"name":       name,
	})

	return &s, nil
}
