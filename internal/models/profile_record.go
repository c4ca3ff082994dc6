package models

// ProfileRecord is the per-user document in the "users" collection.
// A nil field was never written.
type ProfileRecord struct {
	Bio        *string `json:"bio,omitempty" bson:"bio,omitempty" firestore:"bio,omitempty"`
	CoverPhoto *string `json:"coverPhoto,omitempty" bson:"coverPhoto,omitempty" firestore:"coverPhoto,omitempty"`
	Location   *string `json:"location,omitempty" bson:"location,omitempty" firestore:"location,omitempty"`
}

// ProfileFields is the full triple written on every profile save.
type ProfileFields struct {
	Bio        string `json:"bio" bson:"bio" firestore:"bio"`
	CoverPhoto string `json:"coverPhoto" bson:"coverPhoto" firestore:"coverPhoto"`
	Location   string `json:"location" bson:"location" firestore:"location"`
}

// Resolve fills absent fields from defaults. A nil record resolves to defaults.
func (r *ProfileRecord) Resolve(defaults ProfileFields) ProfileFields {
	out := defaults
	if r == nil {
		return out
	}
	if r.Bio != nil {
		out.Bio = *r.Bio
	}
	if r.CoverPhoto != nil {
		out.CoverPhoto = *r.CoverPhoto
	}
	if r.Location != nil {
		out.Location = *r.Location
	}
	return out
}

// Record converts the triple into a fully populated record.
func (f ProfileFields) Record() *ProfileRecord {
	bio, cover, loc := f.Bio, f.CoverPhoto, f.Location
	return &ProfileRecord{Bio: &bio, CoverPhoto: &cover, Location: &loc}
}

// ProfileSnapshot is one delivery of a live profile read.
type ProfileSnapshot struct {
	Record *ProfileRecord
	Err    error
}
