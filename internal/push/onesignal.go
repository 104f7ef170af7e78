// Package push delivers notifications through the OneSignal REST API.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Message is one push notification and its audience. PlayerIDs win over
// ExternalIDs, which win over Segments.
type Message struct {
	Heading     string
	Content     string
	Data        map[string]any
	PlayerIDs   []string
	ExternalIDs []string
	Segments    []string
	ImageURL    string
	BigPicture  string
}

// DefaultSegments targets every subscribed device.
var DefaultSegments = []string{"All"}

// Sender delivers a message and returns the provider's response body.
type Sender interface {
	Send(ctx context.Context, msg Message) (json.RawMessage, error)
}

var ErrNotConfigured = errors.New("push provider is not configured")

// ProviderError is a delivery the provider refused or could not accept.
type ProviderError struct {
	StatusCode int
	Body       json.RawMessage
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("onesignal responded %d: %s", e.StatusCode, string(e.Body))
}

type Config struct {
	AppID      string
	RESTAPIKey string
	APIURL     string
	Timeout    time.Duration
}

type OneSignal struct {
	cfg Config
	log *zap.Logger
}

func NewOneSignal(cfg Config, log *zap.Logger) *OneSignal {
	return &OneSignal{cfg: cfg, log: log}
}

type aliases struct {
	ExternalID []string `json:"external_id"`
}

type payload struct {
	AppID            string            `json:"app_id"`
	Headings         map[string]string `json:"headings"`
	Contents         map[string]string `json:"contents"`
	Data             map[string]any    `json:"data"`
	TargetChannel    string            `json:"target_channel"`
	IncludePlayerIDs []string          `json:"include_player_ids,omitempty"`
	IncludeAliases   *aliases          `json:"include_aliases,omitempty"`
	IncludedSegments []string          `json:"included_segments,omitempty"`
	SmallIcon        string            `json:"small_icon,omitempty"`
	LargeIcon        string            `json:"large_icon,omitempty"`
	BigPicture       string            `json:"big_picture,omitempty"`
}

func (c *OneSignal) body(msg Message) payload {
	p := payload{
		AppID:         c.cfg.AppID,
		Headings:      map[string]string{"en": msg.Heading},
		Contents:      map[string]string{"en": msg.Content},
		Data:          msg.Data,
		TargetChannel: "push",
		SmallIcon:     msg.ImageURL,
		LargeIcon:     msg.ImageURL,
		BigPicture:    msg.BigPicture,
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}

	switch {
	case len(msg.PlayerIDs) > 0:
		p.IncludePlayerIDs = msg.PlayerIDs
	case len(msg.ExternalIDs) > 0:
		p.IncludeAliases = &aliases{ExternalID: msg.ExternalIDs}
	case len(msg.Segments) > 0:
		p.IncludedSegments = msg.Segments
	default:
		p.IncludedSegments = DefaultSegments
	}
	return p
}

func (c *OneSignal) Send(ctx context.Context, msg Message) (json.RawMessage, error) {
	if c.cfg.AppID == "" || c.cfg.RESTAPIKey == "" {
		return nil, ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(c.cfg.APIURL)
	agent.Set(fiber.HeaderAuthorization, "Basic "+c.cfg.RESTAPIKey)
	agent.JSON(c.body(msg))
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return nil, fmt.Errorf("prepare onesignal request: %w", err)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		c.log.Error("onesignal request failed", zap.Errors("errors", errs))
		return nil, fmt.Errorf("send onesignal request: %w", errors.Join(errs...))
	}

	raw := json.RawMessage(body)
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		raw = quoted
	}
	if code < fiber.StatusOK || code >= fiber.StatusMultipleChoices {
		c.log.Warn("onesignal rejected notification", zap.Int("status", code), zap.ByteString("body", body))
		return nil, &ProviderError{StatusCode: code, Body: raw}
	}

	c.log.Info("onesignal notification sent", zap.String("heading", msg.Heading))
	return raw, nil
}
