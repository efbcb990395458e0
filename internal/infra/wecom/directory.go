package wecom

import (
	"context"
	"net/url"
	"strconv"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
)

const (
	pathAgentGet       = "/cgi-bin/agent/get"
	pathDepartmentList = "/cgi-bin/department/list"
	pathUserList       = "/cgi-bin/user/list"
	pathTagGet         = "/cgi-bin/tag/get"
	pathUserGet        = "/cgi-bin/user/get"
)

// GetAppInfo reads the agent configuration (name, visibility scope, domain).
func (c *Client) GetAppInfo(ctx context.Context) (*domain.AppInfo, error) {
	q := url.Values{}
	q.Set("agentid", strconv.FormatInt(c.creds.AgentID, 10))

	var detail domain.AgentDetail
	if err := c.Get(ctx, pathAgentGet, q, &detail); err != nil {
		return nil, err
	}
	return detail.ToAppInfo(), nil
}

// ListDepartments returns departmentID and its sub-departments.
// A zero departmentID returns the whole organization tree.
func (c *Client) ListDepartments(ctx context.Context, departmentID int) ([]domain.Department, error) {
	q := url.Values{}
	if departmentID != 0 {
		q.Set("id", strconv.Itoa(departmentID))
	}

	var resp struct {
		Department []domain.Department `json:"department"`
	}
	if err := c.Get(ctx, pathDepartmentList, q, &resp); err != nil {
		return nil, err
	}
	return resp.Department, nil
}

// ListDepartmentUsers returns the members of a department.
func (c *Client) ListDepartmentUsers(ctx context.Context, departmentID int) ([]domain.DepartmentMember, error) {
	q := url.Values{}
	q.Set("department_id", strconv.Itoa(departmentID))

	var resp struct {
		UserList []domain.DepartmentMember `json:"userlist"`
	}
	if err := c.Get(ctx, pathUserList, q, &resp); err != nil {
		return nil, err
	}
	return resp.UserList, nil
}

// GetTagUsers returns the users and departments carrying a tag.
func (c *Client) GetTagUsers(ctx context.Context, tagID int) (*domain.TagMembers, error) {
	q := url.Values{}
	q.Set("tagid", strconv.Itoa(tagID))

	var resp domain.TagMembers
	if err := c.Get(ctx, pathTagGet, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetUser returns one member of the directory.
func (c *Client) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if userID == "" {
		return nil, &domain.ErrValidation{Field: "userid", Message: "required"}
	}
	q := url.Values{}
	q.Set("userid", userID)

	var resp domain.User
	if err := c.Get(ctx, pathUserGet, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
