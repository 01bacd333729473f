// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package collaborator

import (
	"context"
	"fmt"

	"github.com/stratastor/logger"

	"github.com/stratastor/deaddiskd/pkg/httpclient"
	rterrors "github.com/stratastor/deaddiskd/pkg/errors"
)

// JiraConfig carries the subset of config.Config the Jira client needs,
// kept separate so this package doesn't import config directly.
type JiraConfig struct {
	User           string
	Password       string
	Host           string
	IssueType      string
	Priority       string
	ProjectID      string
	TicketAssignee string
	ProxyURL       string
}

// JiraTicketing opens and polls replacement tickets against a Jira project.
type JiraTicketing struct {
	logger logger.Logger
	client *httpclient.Client
	cfg    JiraConfig
}

func NewJiraTicketing(l logger.Logger, cfg JiraConfig) *JiraTicketing {
	clientCfg := httpclient.NewClientConfig()
	clientCfg.BaseURL = cfg.Host
	clientCfg.BasicAuth.Username = cfg.User
	clientCfg.BasicAuth.Password = cfg.Password
	clientCfg.ProxyURL = cfg.ProxyURL

	return &JiraTicketing{
		logger: l,
		client: httpclient.NewClient(clientCfg),
		cfg:    cfg,
	}
}

type jiraIssueFields struct {
	Project     jiraProjectRef `json:"project"`
	Summary     string         `json:"summary"`
	Description string         `json:"description"`
	IssueType   jiraTypeRef    `json:"issuetype"`
	Priority    jiraTypeRef    `json:"priority"`
	Assignee    *jiraUserRef   `json:"assignee,omitempty"`
}

type jiraProjectRef struct {
	ID string `json:"id"`
}

type jiraTypeRef struct {
	Name string `json:"name"`
}

type jiraUserRef struct {
	Name string `json:"name"`
}

type jiraCreateIssueRequest struct {
	Fields jiraIssueFields `json:"fields"`
}

type jiraCreateIssueResponse struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

type jiraIssueResponse struct {
	Fields struct {
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
		Resolution *struct {
			Name string `json:"name"`
		} `json:"resolution"`
	} `json:"fields"`
}

// CreateTicket opens a new Jira issue describing the failed disk and
// returns its key.
func (j *JiraTicketing) CreateTicket(ctx context.Context, t Ticket) (string, error) {
	body := jiraCreateIssueRequest{
		Fields: jiraIssueFields{
			Project:     jiraProjectRef{ID: j.cfg.ProjectID},
			Summary:     t.Summary,
			Description: fmt.Sprintf("%s\n\n%s", t.Description, formatEnvironment(t.Environment)),
			IssueType:   jiraTypeRef{Name: j.cfg.IssueType},
			Priority:    jiraTypeRef{Name: j.cfg.Priority},
		},
	}
	if j.cfg.TicketAssignee != "" {
		body.Fields.Assignee = &jiraUserRef{Name: j.cfg.TicketAssignee}
	}

	var resp jiraCreateIssueResponse
	r, err := j.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		Post("/rest/api/2/issue")
	if err != nil {
		return "", rterrors.New(rterrors.CollaboratorCreateTicketFailed, err.Error())
	}
	if r.IsError() {
		return "", rterrors.New(rterrors.CollaboratorCreateTicketFailed, r.Status()).
			WithMetadata("body", string(r.Body()))
	}

	return resp.Key, nil
}

// TicketResolved reports whether ticketID's Jira issue has moved to a
// resolved status.
func (j *JiraTicketing) TicketResolved(ctx context.Context, ticketID string) (bool, error) {
	var resp jiraIssueResponse
	r, err := j.client.R().
		SetContext(ctx).
		SetResult(&resp).
		Get(fmt.Sprintf("/rest/api/2/issue/%s", ticketID))
	if err != nil {
		return false, rterrors.New(rterrors.CollaboratorTicketStatusFailed, err.Error())
	}
	if r.IsError() {
		return false, rterrors.New(rterrors.CollaboratorTicketStatusFailed, r.Status())
	}

	return resp.Fields.Resolution != nil, nil
}

func formatEnvironment(env map[string]string) string {
	s := ""
	for _, k := range []string{"hostname", "server_type", "serial", "architecture", "kernel"} {
		if v, ok := env[k]; ok {
			s += fmt.Sprintf("%s: %s\n", k, v)
		}
	}
	return s
}
