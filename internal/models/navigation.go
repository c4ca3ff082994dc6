package models

type NavLink struct {
	Name string `json:"name"`
	Href string `json:"href"`
}

type NavAccount struct {
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	PhotoURL    string `json:"photo_url"`
}

// NavShell is the identity-dependent state of the side menu and top bar.
type NavShell struct {
	Authenticated bool        `json:"authenticated"`
	Links         []NavLink   `json:"links"`
	Account       *NavAccount `json:"account,omitempty"`
	Menu          []NavLink   `json:"menu,omitempty"`
	Actions       []NavLink   `json:"actions,omitempty"`
}

type SignOutResult struct {
	SignedOut    bool          `json:"signed_out"`
	Notification *Notification `json:"notification,omitempty"`
}
