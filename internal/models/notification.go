package models

const (
	NoticeEmailVerification = "email-verification"
	NoticeSignedOut         = "login"
)

// Notification is a one-shot toast keyed by ID.
type Notification struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Closable bool   `json:"closable"`
}
