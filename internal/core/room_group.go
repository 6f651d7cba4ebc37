package core

import (
	"sort"

	"github.com/dkeye/rclass/internal/domain"
	"github.com/rs/zerolog/log"
)

type groupUpdate struct {
	GroupID int              `json:"group_id"`
	Mode    domain.GroupMode `json:"mode"`
	Data    domain.Group     `json:"data"`
}

// SetGroup creates (groupID 0) or edits a group owned by the caller. Endpoint
// ids that are not the caller's own producers are stored as NoEndpoint.
func (r *Room) SetGroup(by domain.MemberID, groupID int, videoID, audioID string) (domain.Group, error) {
	cs, err := r.Session(by)
	if err != nil {
		return domain.Group{}, err
	}
	if !cs.OwnsProducer(videoID) {
		videoID = domain.NoEndpoint
	}
	if !cs.OwnsProducer(audioID) {
		audioID = domain.NoEndpoint
	}

	mode := domain.GroupEdit
	if groupID == 0 {
		mode = domain.GroupCreate
		groupID = r.NextGroupID
		r.NextGroupID++
		r.Groups[groupID] = &domain.Group{ID: groupID, Owner: by}
		cs.Groups[groupID] = struct{}{}
	}
	g, ok := r.Groups[groupID]
	if !ok {
		return domain.Group{}, domain.ErrNotFound
	}
	if g.Owner != by {
		return domain.Group{}, domain.ErrForbidden
	}
	g.VideoID = videoID
	g.AudioID = audioID

	log.Debug().Str("module", "core.group").Str("room", string(r.Name)).Int("group", groupID).Str("mode", string(mode)).Msg("group set")
	r.broadcast(Event{Type: EventGroupUpdate, Data: groupUpdate{GroupID: groupID, Mode: mode, Data: *g}}, by)
	return *g, nil
}

// DelGroup removes a group owned by the caller.
func (r *Room) DelGroup(by domain.MemberID, groupID int) (domain.Group, error) {
	cs, err := r.Session(by)
	if err != nil {
		return domain.Group{}, err
	}
	g, ok := r.Groups[groupID]
	if !ok {
		return domain.Group{}, domain.ErrNotFound
	}
	if g.Owner != by {
		return domain.Group{}, domain.ErrForbidden
	}
	delete(r.Groups, groupID)
	delete(cs.Groups, groupID)
	r.broadcast(Event{Type: EventGroupUpdate, Data: groupUpdate{GroupID: groupID, Mode: domain.GroupDelete, Data: *g}}, by)
	return *g, nil
}

// GroupList returns all groups ordered by id.
func (r *Room) GroupList() []domain.Group {
	out := make([]domain.Group, 0, len(r.Groups))
	for _, g := range r.Groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
