package reservation

import (
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one immutable audit record of a status change. Entries are
// append-only and exist from creation: the initial status is itself recorded
// with a nil FromStatus.
type HistoryEntry struct {
	id         uuid.UUID
	fromStatus *Status
	toStatus   Status
	actorID    uuid.UUID
	note       string
	occurredAt time.Time
}

func newHistoryEntry(from *Status, to Status, actorID uuid.UUID, note string, at time.Time) HistoryEntry {
	return HistoryEntry{
		id:         uuid.New(),
		fromStatus: from,
		toStatus:   to,
		actorID:    actorID,
		note:       note,
		occurredAt: at,
	}
}

func ReconstructHistoryEntry(id uuid.UUID, from *Status, to Status, actorID uuid.UUID, note string, at time.Time) HistoryEntry {
	return HistoryEntry{
		id:         id,
		fromStatus: from,
		toStatus:   to,
		actorID:    actorID,
		note:       note,
		occurredAt: at,
	}
}

func (h HistoryEntry) ID() uuid.UUID         { return h.id }
func (h HistoryEntry) FromStatus() *Status   { return h.fromStatus }
func (h HistoryEntry) ToStatus() Status      { return h.toStatus }
func (h HistoryEntry) ActorID() uuid.UUID    { return h.actorID }
func (h HistoryEntry) Note() string          { return h.note }
func (h HistoryEntry) OccurredAt() time.Time { return h.occurredAt }
