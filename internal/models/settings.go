package models

// SettingsForm is the editable account settings payload.
type SettingsForm struct {
	Name         string `json:"name" validate:"required,max=255"`
	Email        string `json:"email" validate:"required,email"`
	Bio          string `json:"bio"`
	ProfilePhoto string `json:"profile_photo"`
	CoverPhoto   string `json:"cover_photo"`
	Location     string `json:"location" validate:"max=255"`
}

// Profile returns the document-store part of the form.
func (f SettingsForm) Profile() ProfileFields {
	return ProfileFields{Bio: f.Bio, CoverPhoto: f.CoverPhoto, Location: f.Location}
}

// FieldDescriptor describes one settings field for the client renderer.
type FieldDescriptor struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Group     string `json:"group"`
	Input     string `json:"input"`
	ReadOnly  bool   `json:"read_only,omitempty"`
	Required  bool   `json:"required,omitempty"`
	MaxLength int    `json:"max_length,omitempty"`
	Action    string `json:"action,omitempty"`
}

// SettingsView is what the settings page loads.
type SettingsView struct {
	Schema []FieldDescriptor `json:"schema"`
	Values SettingsForm      `json:"values"`
}

// SubmitResult reports what a settings submit persisted.
type SubmitResult struct {
	NameUpdated    bool         `json:"name_updated"`
	ProfileWritten bool         `json:"profile_written"`
	Navigations    []string     `json:"navigations,omitempty"`
	Redirect       string       `json:"redirect,omitempty"`
	ResetValues    SettingsForm `json:"reset_values"`
}

// Navigate records a navigation; the last one wins.
func (r *SubmitResult) Navigate(path string) {
	r.Navigations = append(r.Navigations, path)
	r.Redirect = path
}

type UploadResponse struct {
	URL string `json:"url"`
}

type LocateRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

type LocateResponse struct {
	Location string `json:"location"`
}
