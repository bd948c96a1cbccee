package domain

type ShareStatus struct {
	IsShared bool   `json:"is_shared"`
	WebURL   string `json:"web_url,omitempty"`
}
