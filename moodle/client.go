// Package moodle provides a client for the Moodle web service REST surface,
// scoped to a single access token.
package moodle

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/pkg/metricskey"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/xlog"
	"github.com/tidwall/gjson"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "moodle")

//go:generate mockgen -source=client.go -destination=../mocks/mockmoodle/moodle_mock.gen.go -package mockmoodle

// RESTPath is the path of the REST web service endpoint
const RESTPath = "/webservice/rest/server.php"

const maxBodySize = 32 << 20

// DefaultHTTPClient is used when the client is not configured with its own
var DefaultHTTPClient = &http.Client{Timeout: 60 * time.Second}

// API is the upstream surface used by tools and the activity resolver
type API interface {
	// SiteURL returns the site root URL, without the REST path
	SiteURL() string
	// ListCourses returns all courses visible to the token
	ListCourses(ctx context.Context) ([]*Course, error)
	// ListCourseContents returns sections of the course with their modules
	ListCourseContents(ctx context.Context, courseID int64) ([]*Section, error)
	// GetCourseModule returns base details of the course module by cmid
	GetCourseModule(ctx context.Context, cmid int64) (*CourseModule, error)
	// GetModuleContents returns the module with contents, url and description
	GetModuleContents(ctx context.Context, courseID, cmid int64) (*CourseModule, error)
	// FetchPageText returns readable text of the HTML page
	FetchPageText(ctx context.Context, pageURL string) (string, error)
	// FetchResourceText returns text of the file, or a placeholder for unsupported types
	FetchResourceText(ctx context.Context, fileURL, mimetype string) (string, error)
	// GetAssignment returns the assignment by its instance id
	GetAssignment(ctx context.Context, courseID, instanceID int64) (*Assignment, error)
	// GetForumDigest returns a page of forum discussions
	GetForumDigest(ctx context.Context, forumID int64, q *DigestQuery) (*ForumDigest, error)
}

// Client is a Moodle client bound to one token.
// A new client is expected to be created per tool call.
type Client struct {
	siteURL    string
	token      string
	httpClient *http.Client
}

// ensure Client implements API
var _ API = (*Client)(nil)

// New returns a client for the site, siteURL may include the REST path
func New(siteURL, token string) *Client {
	return &Client{
		siteURL:    SiteURL(siteURL),
		token:      token,
		httpClient: DefaultHTTPClient,
	}
}

// WithHTTPClient sets the HTTP client
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// SiteURL returns the site root URL
func (c *Client) SiteURL() string {
	return c.siteURL
}

// SiteURL normalizes the configured Moodle URL into the site root
func SiteURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	u = strings.TrimSuffix(u, RESTPath)
	return strings.TrimRight(u, "/")
}

// Call invokes the web service function and decodes the response into out
func (c *Client) Call(ctx context.Context, function string, params url.Values, out any) error {
	body, err := c.Raw(ctx, function, params)
	if err != nil {
		return err
	}
	return decode(function, body, out)
}

// Raw invokes the web service function and returns the JSON body.
// Upstream exceptions are returned as KindUpstreamFault errors,
// transport failures as KindUpstreamUnavailable.
func (c *Client) Raw(ctx context.Context, function string, params url.Values) ([]byte, error) {
	started := time.Now()
	defer metricskey.PerfUpstreamCall.MeasureSince(started, function)

	body, err := c.invoke(ctx, function, params)
	if err != nil {
		metricskey.StatsUpstreamCallsFailed.IncrCounter(1, function, string(toolerr.KindOf(err)))
		logger.ContextKV(ctx, xlog.ERROR,
			"function", function,
			"err", err.Error(),
		)
		return nil, err
	}
	metricskey.StatsUpstreamCallsSucceeded.IncrCounter(1, function)
	return body, nil
}

func (c *Client) invoke(ctx context.Context, function string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("wstoken", c.token)
	q.Set("wsfunction", function)
	q.Set("moodlewsrestformat", "json")

	logger.ContextKV(ctx, xlog.DEBUG,
		"function", function,
		"params", params.Encode(),
	)

	body, err := c.get(ctx, c.siteURL+RESTPath+"?"+q.Encode())
	if err != nil {
		return nil, toolerr.UpstreamUnavailable(err, "failed to call Moodle function %s", function)
	}

	if !gjson.ValidBytes(body) {
		return nil, toolerr.UpstreamUnavailable(nil, "Moodle function %s returned malformed JSON", function)
	}
	if res := gjson.ParseBytes(body); res.IsObject() && res.Get("exception").Exists() {
		return nil, toolerr.UpstreamFault(res.Get("errorcode").String(), res.Get("message").String())
	}
	return body, nil
}

// callArray invokes the function that must return JSON array
func (c *Client) callArray(ctx context.Context, function string, params url.Values, out any) error {
	body, err := c.Raw(ctx, function, params)
	if err != nil {
		return err
	}
	if !gjson.ParseBytes(body).IsArray() {
		return toolerr.UpstreamShape("Moodle function %s returned non-array response", function)
	}
	return decode(function, body, out)
}

// get issues plain GET request, the URL is never included in the error
// as it may carry a credential.
func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.New("invalid request URL")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			return nil, ue.Err
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return nil, errors.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}
	return body, nil
}

func decode(function string, body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := ljson.Unmarshal(body, out); err != nil {
		return toolerr.UpstreamShape("Moodle function %s returned unexpected response: %s", function, err.Error())
	}
	return nil
}
