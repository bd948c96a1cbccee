package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"okeears-server/internal/domain"
)

// NotebooksFolder is where OneNote keeps notebooks in the owner's drive.
const NotebooksFolder = "Notebooks"

type DriveItem struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	ETag   string       `json:"eTag"`
	WebURL string       `json:"webUrl"`
	Shared *sharedFacet `json:"shared,omitempty"`
}

type sharedFacet struct {
	Scope string `json:"scope"`
}

// DriveSharer shares notebook folders in the subject's OneDrive.
type DriveSharer struct {
	client *Client
	alias  string
}

func NewDriveSharer(client *Client, recipientAlias string) *DriveSharer {
	return &DriveSharer{
		client: client,
		alias:  recipientAlias,
	}
}

// ResolveStorageItemID finds the drive item under the Notebooks folder whose
// eTag contains etag. Exactly one match is required.
func (s *DriveSharer) ResolveStorageItemID(ctx context.Context, subjectID, etag string) (string, error) {
	if etag == "" {
		return "", fmt.Errorf("empty etag")
	}

	path := fmt.Sprintf("/users/%s/drive/root:/%s:/children", url.PathEscape(subjectID), NotebooksFolder)
	var list struct {
		Value []*DriveItem `json:"value"`
	}
	if err := s.client.GetJSON(ctx, path, url.Values{"$select": {"id,name,eTag,webUrl"}}, &list); err != nil {
		return "", err
	}

	needle := strings.ToLower(etag)
	var matches []*DriveItem
	for _, item := range list.Value {
		if strings.Contains(strings.ToLower(item.ETag), needle) {
			matches = append(matches, item)
		}
	}

	switch len(matches) {
	case 1:
		return matches[0].ID, nil
	case 0:
		return "", fmt.Errorf("no drive item matches etag %q", etag)
	default:
		return "", fmt.Errorf("%d drive items match etag %q", len(matches), etag)
	}
}

// ShareItem grants read access to the configured audience without sending an
// invitation mail. Sharing an already shared item is harmless.
func (s *DriveSharer) ShareItem(ctx context.Context, subjectID, itemID string) error {
	body := map[string]interface{}{
		"recipients": []map[string]string{
			{"alias": s.alias},
		},
		"requireSignIn":  true,
		"sendInvitation": false,
		"roles":          []string{"read"},
	}

	path := fmt.Sprintf("/users/%s/drive/items/%s/invite", url.PathEscape(subjectID), url.PathEscape(itemID))
	return s.client.PostJSON(ctx, path, body, nil)
}

func (s *DriveSharer) CheckItemShared(ctx context.Context, subjectID, itemID string) (domain.ShareStatus, error) {
	path := fmt.Sprintf("/users/%s/drive/items/%s", url.PathEscape(subjectID), url.PathEscape(itemID))

	var item DriveItem
	if err := s.client.GetJSON(ctx, path, url.Values{"$select": {"id,shared,webUrl"}}, &item); err != nil {
		return domain.ShareStatus{}, err
	}

	return domain.ShareStatus{
		IsShared: item.Shared != nil,
		WebURL:   item.WebURL,
	}, nil
}
