package domain

type Subject struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Mail        string `json:"mail,omitempty"`
	JobTitle    string `json:"job_title,omitempty"`
}

type OrgTree struct {
	Subject       *Subject   `json:"subject"`
	Manager       *Subject   `json:"manager,omitempty"`
	DirectReports []*Subject `json:"direct_reports"`
}
