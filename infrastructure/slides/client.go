// Package slides is the REST client for the presentation backend. All deck
// reads and mutations go through here; calls are guarded by a circuit breaker
// so a flapping backend fails fast instead of stalling every run.
package slides

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"slidesmith/domain/deck"
	apperrors "slidesmith/pkg/errors"
)

const (
	defaultSlidesBaseURL = "https://slides.googleapis.com/v1"
	defaultDriveBaseURL  = "https://www.googleapis.com/drive/v3"

	// Placement of the narration element: a small play button near the
	// bottom left of the slide.
	audioElementSizePT = 60.0
	audioTranslateXPT  = 50.0
	audioTranslateYPT  = 400.0
)

// Config holds document service settings.
type Config struct {
	SlidesBaseURL string
	DriveBaseURL  string
	Token         string
	Timeout       time.Duration
}

// Client talks to the presentation and file-copy endpoints.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a document service client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.Token == "" {
		return nil, apperrors.NewConfigurationError("document service token is required")
	}
	if config.SlidesBaseURL == "" {
		config.SlidesBaseURL = defaultSlidesBaseURL
	}
	if config.DriveBaseURL == "" {
		config.DriveBaseURL = defaultDriveBaseURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "document-service",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
		logger:     logger,
	}, nil
}

// Fetch retrieves the full presentation once per run.
func (c *Client) Fetch(ctx context.Context, presentationID string) (*deck.Document, error) {
	var payload presentationPayload
	url := fmt.Sprintf("%s/presentations/%s", c.config.SlidesBaseURL, presentationID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toDocument(), nil
}

// Name returns the presentation title. Used as a connectivity probe and for
// copy naming.
func (c *Client) Name(ctx context.Context, presentationID string) (string, error) {
	var payload struct {
		Title string `json:"title"`
	}
	url := fmt.Sprintf("%s/presentations/%s?fields=title", c.config.SlidesBaseURL, presentationID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return "", err
	}
	return payload.Title, nil
}

// Duplicate copies the presentation under a new name and returns the copy id.
func (c *Client) Duplicate(ctx context.Context, sourceID, title string) (string, error) {
	body := map[string]string{"name": title}
	var payload struct {
		ID string `json:"id"`
	}
	url := fmt.Sprintf("%s/files/%s/copy?supportsAllDrives=true", c.config.DriveBaseURL, sourceID)
	if err := c.doJSON(ctx, http.MethodPost, url, body, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", apperrors.NewExternalError("document-service", fmt.Errorf("copy returned no id"))
	}
	return payload.ID, nil
}

// ApplyEdits sends one batch of text mutations. The backend applies the batch
// atomically; either every request lands or none do.
func (c *Client) ApplyEdits(ctx context.Context, presentationID string, ops []deck.EditOp) error {
	if len(ops) == 0 {
		return nil
	}
	requests := make([]map[string]interface{}, 0, len(ops))
	for _, op := range ops {
		switch o := op.(type) {
		case deck.ClearRegion:
			requests = append(requests, map[string]interface{}{
				"deleteText": map[string]interface{}{
					"objectId":  o.ID,
					"textRange": map[string]string{"type": "ALL"},
				},
			})
		case deck.InsertText:
			requests = append(requests, map[string]interface{}{
				"insertText": map[string]interface{}{
					"objectId":       o.ID,
					"insertionIndex": 0,
					"text":           o.Text,
				},
			})
		}
	}
	return c.batchUpdate(ctx, presentationID, requests)
}

// InsertAudio embeds a narration element on the slide pointing at an uploaded
// audio URL.
func (c *Client) InsertAudio(ctx context.Context, presentationID, slideID, audioURL string) error {
	requests := []map[string]interface{}{
		{
			"createVideo": map[string]interface{}{
				"url": audioURL,
				"elementProperties": map[string]interface{}{
					"pageObjectId": slideID,
					"size": map[string]interface{}{
						"height": map[string]interface{}{"magnitude": audioElementSizePT, "unit": "PT"},
						"width":  map[string]interface{}{"magnitude": audioElementSizePT, "unit": "PT"},
					},
					"transform": map[string]interface{}{
						"scaleX":     1,
						"scaleY":     1,
						"translateX": audioTranslateXPT,
						"translateY": audioTranslateYPT,
						"unit":       "PT",
					},
				},
			},
		},
	}
	return c.batchUpdate(ctx, presentationID, requests)
}

func (c *Client) batchUpdate(ctx context.Context, presentationID string, requests []map[string]interface{}) error {
	url := fmt.Sprintf("%s/presentations/%s:batchUpdate", c.config.SlidesBaseURL, presentationID)
	body := map[string]interface{}{"requests": requests}
	return c.doJSON(ctx, http.MethodPost, url, body, nil)
}

// doJSON runs one request through the circuit breaker and decodes the JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apperrors.Wrap(err, "building request")
	}
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, c.statusError(resp.StatusCode, data)
		}
		return data, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return apperrors.NewUnavailableError("document-service").WithCause(err)
		}
		if apperrors.IsAppError(err) {
			return err
		}
		return apperrors.NewExternalError("document-service", err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result.([]byte), out); err != nil {
		return apperrors.NewExternalError("document-service", fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

// statusError maps HTTP failures to the error taxonomy. A quota rejection is
// surfaced distinctly: it means the service identity has no storage of its
// own and a shared destination must be configured.
func (c *Client) statusError(status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 512 {
		detail = detail[:512]
	}
	switch {
	case strings.Contains(detail, "storageQuotaExceeded"):
		return apperrors.NewStorageQuotaError(
			"copy rejected: the service identity has no personal storage, configure a shared destination")
	case status == http.StatusNotFound:
		return apperrors.NewNotFoundError("presentation")
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return apperrors.NewExternalError("document-service",
			fmt.Errorf("access denied (%d): %s", status, detail))
	default:
		return apperrors.NewExternalError("document-service",
			fmt.Errorf("status %d: %s", status, detail))
	}
}

// Wire payload types. Only the fields the pipeline reads are modeled.

type presentationPayload struct {
	PresentationID string         `json:"presentationId"`
	Title          string         `json:"title"`
	Slides         []slidePayload `json:"slides"`
}

type slidePayload struct {
	ObjectID     string           `json:"objectId"`
	PageElements []elementPayload `json:"pageElements"`
}

type elementPayload struct {
	ObjectID  string `json:"objectId"`
	Transform *struct {
		TranslateX float64 `json:"translateX"`
		TranslateY float64 `json:"translateY"`
	} `json:"transform"`
	Shape *struct {
		ShapeType string `json:"shapeType"`
		Text      *struct {
			TextElements []struct {
				TextRun *struct {
					Content string `json:"content"`
				} `json:"textRun"`
			} `json:"textElements"`
		} `json:"text"`
	} `json:"shape"`
	Image *json.RawMessage `json:"image"`
	Video *json.RawMessage `json:"video"`
	Table *json.RawMessage `json:"table"`
}

func (p *presentationPayload) toDocument() *deck.Document {
	doc := &deck.Document{
		ID:     p.PresentationID,
		Title:  p.Title,
		Slides: make([]deck.Slide, 0, len(p.Slides)),
	}
	for _, sp := range p.Slides {
		slide := deck.Slide{
			ID:       sp.ObjectID,
			Elements: make([]deck.PageElement, 0, len(sp.PageElements)),
		}
		for _, ep := range sp.PageElements {
			slide.Elements = append(slide.Elements, ep.toElement())
		}
		doc.Slides = append(doc.Slides, slide)
	}
	return doc
}

func (e *elementPayload) toElement() deck.PageElement {
	el := deck.PageElement{ID: e.ObjectID, Kind: deck.ElementUnknown}
	if e.Transform != nil {
		el.Left = e.Transform.TranslateX
		el.Top = e.Transform.TranslateY
	}
	switch {
	case e.Shape != nil && e.Shape.ShapeType == "TEXT_BOX":
		el.Kind = deck.ElementTextBox
		el.Text = e.shapeText()
	case e.Shape != nil:
		el.Kind = deck.ElementShape
		el.Text = e.shapeText()
	case e.Video != nil:
		el.Kind = deck.ElementVideo
	case e.Image != nil:
		el.Kind = deck.ElementImage
	case e.Table != nil:
		el.Kind = deck.ElementTable
	}
	return el
}

func (e *elementPayload) shapeText() string {
	if e.Shape == nil || e.Shape.Text == nil {
		return ""
	}
	var sb strings.Builder
	for _, te := range e.Shape.Text.TextElements {
		if te.TextRun != nil {
			sb.WriteString(te.TextRun.Content)
		}
	}
	return sb.String()
}
