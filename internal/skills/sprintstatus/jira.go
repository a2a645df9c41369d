// ABOUTME: Minimal Jira Cloud agile REST client for the sprint status skill
// ABOUTME: Basic auth, pagination over sprint issues, retry on 429 and 5xx
package sprintstatus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/WildEllie/t3nets/internal/util"
)

const pageSize = 50

// issueFields are the fields requested for every sprint issue
const issueFields = "summary,status,assignee,priority,customfield_10016,labels"

// APIError is a non-2xx response from Jira
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("jira: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), body)
}

// Credentials are the secrets of the jira integration
type Credentials struct {
	URL      string
	Email    string
	APIToken string
	BoardID  string
}

// requiredSecrets lists the jira secrets in reporting order
var requiredSecrets = []string{"url", "email", "api_token", "board_id"}

// credentialsFrom extracts credentials and the names of any missing secrets
func credentialsFrom(secrets map[string]string) (Credentials, []string) {
	var missing []string
	for _, key := range requiredSecrets {
		if strings.TrimSpace(secrets[key]) == "" {
			missing = append(missing, key)
		}
	}
	return Credentials{
		URL:      strings.TrimRight(secrets["url"], "/"),
		Email:    secrets["email"],
		APIToken: secrets["api_token"],
		BoardID:  secrets["board_id"],
	}, missing
}

type jiraClient struct {
	http       *http.Client
	creds      Credentials
	maxRetries int
	retryDelay time.Duration
}

type sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	State     string `json:"state"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type issue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  *struct {
			Name           string `json:"name"`
			StatusCategory *struct {
				Name string `json:"name"`
			} `json:"statusCategory"`
		} `json:"status"`
		Assignee *struct {
			DisplayName  string `json:"displayName"`
			EmailAddress string `json:"emailAddress"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		StoryPoints *float64 `json:"customfield_10016"`
		Labels      []string `json:"labels"`
	} `json:"fields"`
}

func (c *jiraClient) get(ctx context.Context, endpoint string, dest any) error {
	target := c.creds.URL + "/rest/agile/1.0/" + endpoint

	return util.Retry(ctx, c.maxRetries, c.retryDelay, func(int) (bool, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return false, fmt.Errorf("jira: failed to build request: %w", err)
		}
		req.SetBasicAuth(c.creds.Email, c.creds.APIToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return ctx.Err() == nil, fmt.Errorf("jira: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			return retry, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return false, fmt.Errorf("jira: failed to decode response: %w", err)
		}
		return false, nil
	})
}

// activeSprint returns the board's active sprint, or nil if there is none
func (c *jiraClient) activeSprint(ctx context.Context) (*sprint, error) {
	var page struct {
		Values []sprint `json:"values"`
	}
	endpoint := fmt.Sprintf("board/%s/sprint?state=active", url.PathEscape(c.creds.BoardID))
	if err := c.get(ctx, endpoint, &page); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("jira: 404 Board not found (board %s)", c.creds.BoardID)
		}
		return nil, err
	}
	if len(page.Values) == 0 {
		return nil, nil
	}
	return &page.Values[0], nil
}

// sprintIssues pages through every issue of a sprint
func (c *jiraClient) sprintIssues(ctx context.Context, sprintID int) ([]issue, error) {
	var all []issue
	for startAt := 0; ; startAt += pageSize {
		var page struct {
			Issues []issue `json:"issues"`
			Total  int     `json:"total"`
		}
		endpoint := fmt.Sprintf("sprint/%d/issue?startAt=%d&maxResults=%d&fields=%s", sprintID, startAt, pageSize, issueFields)
		if err := c.get(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Issues...)
		if startAt+pageSize >= page.Total {
			return all, nil
		}
	}
}
