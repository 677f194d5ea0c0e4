package ir

import (
	"fmt"
	"slices"
)

// Status is the governance state of a service-type lineage.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}

// ParseStatus converts a string to a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q: must be one of %v", s, Statuses)
	}
	return st, nil
}

// EntityKind distinguishes the two posting kinds that may be classified.
type EntityKind string

const (
	KindRequest EntityKind = "request"
	KindOffer   EntityKind = "offer"
)

// EntityKinds lists every posting kind.
var EntityKinds = []EntityKind{KindRequest, KindOffer}

// Valid reports whether k is a known posting kind.
func (k EntityKind) Valid() bool {
	return slices.Contains(EntityKinds, k)
}

// ParseEntityKind converts a string to an EntityKind.
func ParseEntityKind(s string) (EntityKind, error) {
	k := EntityKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown entity kind %q: must be one of %v", s, EntityKinds)
	}
	return k, nil
}

// Content is the user-editable part of a service type.
type Content struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Technical   bool     `json:"technical"`
	Tags        []string `json:"tags"`
}

// Object returns the content as a hashable Object.
func (c Content) Object() Object {
	return Object{
		"name":        String(c.Name),
		"description": String(c.Description),
		"category":    String(c.Category),
		"technical":   Bool(c.Technical),
		"tags":        Strings(c.Tags),
	}
}

// Revision is an immutable snapshot of a lineage's content.
// The first revision of a lineage has an empty PreviousID and its ID is the
// lineage's OriginID.
type Revision struct {
	ID         string  `json:"id"`
	OriginID   string  `json:"origin_id"`
	PreviousID string  `json:"previous_id,omitempty"`
	Content    Content `json:"content"`
	Author     string  `json:"author"`
	Seq        int64   `json:"seq"`
}

// Lineage is the identity of a service type across all of its revisions,
// together with its current content and status.
type Lineage struct {
	OriginID   string `json:"origin_id"`
	RevisionID string `json:"revision_id"`
	Content
	Status     Status `json:"status"`
	Author     string `json:"author"`
	CreatedSeq int64  `json:"created_seq"`
	UpdatedSeq int64  `json:"updated_seq"`
	Deleted    bool   `json:"deleted,omitempty"`
}

// Live reports whether the lineage has not been tombstoned.
func (l Lineage) Live() bool {
	return !l.Deleted
}

// PostingRef addresses a request or offer by its origin identifier.
type PostingRef struct {
	ID   string     `json:"id"`
	Kind EntityKind `json:"kind"`
}

func (p PostingRef) String() string {
	return string(p.Kind) + "/" + p.ID
}

// Link is one posting↔service-type association. The same value describes
// both the forward edge (posting → service type) and its reverse.
type Link struct {
	OriginID string     `json:"origin_id"`
	Posting  PostingRef `json:"posting"`
}

// TagEntry is one row of the tag index: tag → lineage.
type TagEntry struct {
	Tag      string `json:"tag"`
	OriginID string `json:"origin_id"`
}

// TagCount is one row of usage statistics.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// EventKind names a lineage lifecycle event.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventUpdated  EventKind = "updated"
	EventApproved EventKind = "approved"
	EventRejected EventKind = "rejected"
	EventDeleted  EventKind = "deleted"
)

// Event is an outbox record describing a committed lineage change.
// Subscribers receive the lineage identifier and its status after the change.
type Event struct {
	Seq      int64     `json:"seq"`
	Kind     EventKind `json:"kind"`
	OriginID string    `json:"origin_id"`
	Status   Status    `json:"status"`
	Actor    string    `json:"actor"`
	Token    string    `json:"token"`
}

// SecurityContext identifies the caller of a mutating operation.
type SecurityContext struct {
	UserID      string   `json:"user_id"`
	Permissions []string `json:"permissions"`
}

// Authenticated reports whether the context carries a caller identity.
func (sc SecurityContext) Authenticated() bool {
	return sc.UserID != ""
}

// HasPermission reports whether the caller holds the named permission.
func (sc SecurityContext) HasPermission(p string) bool {
	return slices.Contains(sc.Permissions, p)
}
