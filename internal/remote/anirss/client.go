package anirss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
)

const (
	collectionPath = "/api/collection"
	successCode    = 200

	defaultTimeout = 30 * time.Second
)

// ClientConfig configures the ani-rss remote client.
type ClientConfig struct {
	// BaseURL is the ani-rss server URL (e.g. "http://localhost:7789").
	BaseURL string
	// Token is sent in the Authorization header when set.
	Token string
	// RateLimit is the maximum requests per second sent to the server (0 means unlimited).
	RateLimit float64
	// HTTPClient is the HTTP client for API requests.
	HTTPClient *http.Client
	Logger     log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit can't be negative")
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "remote.AniRSS"})
	return nil
}

// Client implements remote.Client against the ani-rss collection API.
type Client struct {
	baseURL    string
	token      string
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a new ani-rss remote client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		limiter:    rate.NewLimiter(limit, 1),
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// APIError is an error reported by the ani-rss server in the response envelope.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("ani-rss error (code %d)", e.Code)
	}
	return e.Message
}

// Create creates a magnet collection task.
func (c *Client) Create(ctx context.Context, magnetURI string, jc model.JobContext) (string, error) {
	body := createRequestJSON{
		Magnet: magnetURI,
		Ani:    mapJobContextToJSON(jc),
	}

	var t taskJSON
	if err := c.do(ctx, http.MethodPost, "magnetCreate", nil, body, &t); err != nil {
		return "", err
	}
	if t.ID == "" {
		return "", fmt.Errorf("server returned an empty task id")
	}

	c.logger.Debugf("Created remote task %s", t.ID)
	return t.ID, nil
}

// Status gets the status of a magnet collection task.
func (c *Client) Status(ctx context.Context, id string) (*model.StatusReport, error) {
	var t taskJSON
	if err := c.do(ctx, http.MethodGet, "magnetStatus", url.Values{"taskId": {id}}, nil, &t); err != nil {
		return nil, err
	}

	return mapTaskToStatusReport(t), nil
}

// Cancel cancels a magnet collection task.
func (c *Client) Cancel(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodGet, "magnetCancel", url.Values{"taskId": {id}}, nil, nil)
}

// Organize organizes the selected files of a completed magnet collection task.
func (c *Client) Organize(ctx context.Context, id string, plan model.OrganizePlan) error {
	body := organizeRequestJSON{
		TaskID:                 id,
		Files:                  mapFilesToJSON(plan.Files),
		KeepDirectoryStructure: plan.KeepDirectoryStructure,
		DirectoryRenames:       plan.DirectoryRenames,
	}
	if body.DirectoryRenames == nil {
		body.DirectoryRenames = map[string]string{}
	}

	return c.do(ctx, http.MethodPost, "magnetOrganize", nil, body, nil)
}

// TempFiles gets the file tree of the task temporary directory.
func (c *Client) TempFiles(ctx context.Context, id string) ([]model.File, error) {
	var files []fileJSON
	if err := c.do(ctx, http.MethodGet, "magnetTempFiles", url.Values{"taskId": {id}}, nil, &files); err != nil {
		return nil, err
	}

	return mapFilesFromJSON(files), nil
}

// ForceComplete skips the download completion check of a task and moves it to the
// organize stage. Servers answering without the task are followed by a status request.
func (c *Client) ForceComplete(ctx context.Context, id string) (*model.StatusReport, error) {
	var data json.RawMessage
	if err := c.do(ctx, http.MethodGet, "magnetForceComplete", url.Values{"taskId": {id}}, nil, &data); err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		c.logger.Debugf("Force complete of task %s answered without task, requesting status", id)
		return c.Status(ctx, id)
	}

	var t taskJSON
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("could not decode magnetForceComplete data: %w", err)
	}

	return mapTaskToStatusReport(t), nil
}

// do executes a collection API call and decodes the envelope data into out (if not nil).
func (c *Client) do(ctx context.Context, method, action string, query url.Values, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("type", action)
	u := c.baseURL + collectionPath + "?" + query.Encode()

	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read %s response: %w", action, err)
	}

	var result resultJSON
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s request returned status %d", action, resp.StatusCode)
		}
		return fmt.Errorf("could not decode %s response: %w", action, err)
	}
	if result.Code != successCode {
		return &APIError{Code: result.Code, Message: result.Message}
	}

	if out == nil || len(result.Data) == 0 || string(result.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("could not decode %s data: %w", action, err)
	}

	return nil
}

// --- JSON wire types (private, for the ani-rss API) ---

type resultJSON struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type aniJSON struct {
	Title          string   `json:"title"`
	ThemoviedbName string   `json:"themoviedbName,omitempty"`
	Season         int      `json:"season"`
	Year           int      `json:"year,omitempty"`
	Month          int      `json:"month,omitempty"`
	Subgroup       string   `json:"subgroup,omitempty"`
	DownloadPath   string   `json:"downloadPath"`
	Match          []string `json:"match"`
	Exclude        []string `json:"exclude"`
	CustomEpisode  bool     `json:"customEpisode"`
}

type fileJSON struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	IsDir    bool   `json:"isDir"`
	Selected bool   `json:"selected"`
	NewName  string `json:"newName,omitempty"`
}

type taskJSON struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Progress  int        `json:"progress"`
	Files     []fileJSON `json:"files"`
	Ani       *aniJSON   `json:"ani"`
	FinalPath string     `json:"finalPath"`
	Error     string     `json:"error"`
}

type createRequestJSON struct {
	Magnet string  `json:"magnet"`
	Ani    aniJSON `json:"ani"`
}

type organizeRequestJSON struct {
	TaskID                 string            `json:"taskId"`
	Files                  []fileJSON        `json:"files"`
	KeepDirectoryStructure bool              `json:"keepDirectoryStructure"`
	DirectoryRenames       map[string]string `json:"directoryRenames"`
}

func mapJobContextToJSON(jc model.JobContext) aniJSON {
	a := aniJSON{
		Title:          jc.Title,
		ThemoviedbName: jc.ThemoviedbName,
		Season:         jc.Season,
		Year:           jc.Year,
		Month:          jc.Month,
		Subgroup:       jc.Subgroup,
		DownloadPath:   jc.DownloadPath,
		Match:          jc.Match,
		Exclude:        jc.Exclude,
		CustomEpisode:  jc.CustomEpisode,
	}
	if a.Match == nil {
		a.Match = []string{}
	}
	if a.Exclude == nil {
		a.Exclude = []string{}
	}
	return a
}

func mapFilesToJSON(files []model.File) []fileJSON {
	res := make([]fileJSON, 0, len(files))
	for _, f := range files {
		res = append(res, fileJSON{
			Path:     f.Path,
			Name:     f.Name,
			Size:     f.Size,
			IsDir:    f.IsDir,
			Selected: f.Selected,
			NewName:  f.NewName,
		})
	}
	return res
}

func mapTaskToStatusReport(t taskJSON) *model.StatusReport {
	r := &model.StatusReport{
		Status:   model.TaskStatus(t.Status),
		Progress: min(max(t.Progress, 0), 100),
		Error:    t.Error,
	}

	r.Files = mapFilesFromJSON(t.Files)

	if t.Ani != nil {
		r.JobContext = &model.JobContext{
			Title:          t.Ani.Title,
			ThemoviedbName: t.Ani.ThemoviedbName,
			Season:         t.Ani.Season,
			Year:           t.Ani.Year,
			Month:          t.Ani.Month,
			Subgroup:       t.Ani.Subgroup,
			DownloadPath:   t.Ani.DownloadPath,
			Match:          t.Ani.Match,
			Exclude:        t.Ani.Exclude,
			CustomEpisode:  t.Ani.CustomEpisode,
		}
	}

	return r
}

func mapFilesFromJSON(files []fileJSON) []model.File {
	var res []model.File
	for _, f := range files {
		res = append(res, model.File{
			Path:     f.Path,
			Name:     f.Name,
			Size:     f.Size,
			IsDir:    f.IsDir,
			Selected: f.Selected,
			NewName:  f.NewName,
		})
	}
	return res
}
