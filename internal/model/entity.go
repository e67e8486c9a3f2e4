package model

// EntityKind categorizes an extracted entity
type EntityKind string

const (
	EntityPerson       EntityKind = "person"
	EntityOrganization EntityKind = "organization"
	EntityAgreement    EntityKind = "agreement"
	EntityTopic        EntityKind = "topic"
	EntityDate         EntityKind = "date"
)

// Entity is a deduplicated mention target shared by many turns.
// Identity is keyed by the normalized surface text, so two surface
// forms that normalize identically merge into one entity.
type Entity struct {
	ID            string     `json:"id"`
	Kind          EntityKind `json:"kind"`
	SurfaceText   string     `json:"surface_text"`    // first surface form seen
	NormalizedKey string     `json:"normalized_key"`  // output of the normalizer
	FirstSeenTurn string     `json:"first_seen_turn"` // turn ID of first mention
	MentionCount  int        `json:"mention_count"`
}
