package graph

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const userFields = "id,displayName,mail,jobTitle,userPrincipalName"

type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	JobTitle          string `json:"jobTitle"`
	UserPrincipalName string `json:"userPrincipalName"`
}

type userList struct {
	Value []*User `json:"value"`
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.GetJSON(ctx, "/me", url.Values{"$select": {userFields}}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) User(ctx context.Context, id string) (*User, error) {
	var user User
	if err := c.GetJSON(ctx, "/users/"+url.PathEscape(id), url.Values{"$select": {userFields}}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Manager returns nil without error when the user has no manager.
func (c *Client) Manager(ctx context.Context, id string) (*User, error) {
	var user User
	err := c.GetJSON(ctx, "/users/"+url.PathEscape(id)+"/manager", url.Values{"$select": {userFields}}, &user)
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) DirectReports(ctx context.Context, id string) ([]*User, error) {
	var list userList
	if err := c.GetJSON(ctx, "/users/"+url.PathEscape(id)+"/directReports", url.Values{"$select": {userFields}}, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}

// People returns the people most relevant to the signed-in user, narrowed by
// search when it is not empty.
func (c *Client) People(ctx context.Context, search string, top int) ([]*User, error) {
	query := url.Values{"$select": {"id,displayName,jobTitle,userPrincipalName"}}
	if top > 0 {
		query.Set("$top", strconv.Itoa(top))
	}
	if search != "" {
		query.Set("$search", `"`+strings.ReplaceAll(search, `"`, "")+`"`)
	}

	var list userList
	if err := c.GetJSON(ctx, "/me/people", query, &list); err != nil {
		return nil, err
	}
	return list.Value, nil
}
