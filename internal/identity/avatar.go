package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
)

// AvatarCache keeps the last known avatar URL on the client.
type AvatarCache interface {
	Token(ctx context.Context) (string, error)
	AvatarURL(ctx context.Context) (string, error)
	SetAvatarURL(ctx context.Context, url string) error
}

// Avatars stores profile pictures in a Firebase-Storage style bucket under
// the object name "avatars/<uid>".
type Avatars struct {
	baseURL string
	bucket  string
	client  *req.Client
	cache   AvatarCache
	logger  *slog.Logger
}

// NewAvatars creates an avatar store client.
func NewAvatars(baseURL, bucket string, timeout time.Duration, cache AvatarCache, logger *slog.Logger) *Avatars {
	baseURL = strings.TrimRight(baseURL, "/")
	return &Avatars{
		baseURL: baseURL,
		bucket:  bucket,
		client:  req.C().SetTimeout(timeout).SetUserAgent("MetroDiver/1.0"),
		cache:   cache,
		logger:  logger,
	}
}

type objectMetadata struct {
	Name           string `json:"name"`
	DownloadTokens string `json:"downloadTokens"`
}

// Upload stores data as the avatar of userID and returns its download URL.
func (a *Avatars) Upload(ctx context.Context, userID, contentType string, data []byte) (string, error) {
	if userID == "" {
		return "", ErrNoSession
	}
	token, err := a.cache.Token(ctx)
	if err != nil || token == "" {
		return "", ErrNoSession
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString()).
		SetHeader("Authorization", "Firebase "+token).
		SetContentType(contentType).
		SetQueryParam("uploadType", "media").
		SetQueryParam("name", objectName(userID)).
		SetBodyBytes(data).
		Post(a.bucketURL() + "/o")
	if err != nil {
		return "", &AuthError{Reason: ReasonNetwork, Err: err}
	}
	if !resp.IsSuccessState() {
		return "", fmt.Errorf("upload avatar: HTTP %d", resp.StatusCode)
	}

	var meta objectMetadata
	if err := json.Unmarshal(resp.Bytes(), &meta); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	u := a.downloadURL(userID, meta.DownloadTokens)
	if err := a.cache.SetAvatarURL(ctx, u); err != nil {
		a.logger.Warn("failed to cache avatar url", "error", err)
	}
	a.logger.Info("avatar uploaded", "user", userID, "bytes", len(data))
	return u, nil
}

// URL returns the download URL of userID's avatar, or ErrNoAvatar. The
// cached value is returned when present.
func (a *Avatars) URL(ctx context.Context, userID string) (string, error) {
	if cached, err := a.cache.AvatarURL(ctx); err == nil && cached != "" {
		return cached, nil
	}

	r := a.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
	if token, err := a.cache.Token(ctx); err == nil && token != "" {
		r.SetHeader("Authorization", "Firebase "+token)
	}
	resp, err := r.Get(a.objectURL(userID))
	if err != nil {
		return "", &AuthError{Reason: ReasonNetwork, Err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoAvatar
	}
	if !resp.IsSuccessState() {
		return "", fmt.Errorf("avatar metadata: HTTP %d", resp.StatusCode)
	}

	var meta objectMetadata
	if err := json.Unmarshal(resp.Bytes(), &meta); err != nil {
		return "", fmt.Errorf("decode avatar metadata: %w", err)
	}

	u := a.downloadURL(userID, meta.DownloadTokens)
	if err := a.cache.SetAvatarURL(ctx, u); err != nil {
		a.logger.Warn("failed to cache avatar url", "error", err)
	}
	return u, nil
}

func objectName(userID string) string {
	return "avatars/" + userID
}

func (a *Avatars) bucketURL() string {
	return a.baseURL + "/b/" + url.PathEscape(a.bucket)
}

func (a *Avatars) objectURL(userID string) string {
	return a.bucketURL() + "/o/" + url.PathEscape(objectName(userID))
}

func (a *Avatars) downloadURL(userID, tokens string) string {
	q := url.Values{"alt": {"media"}}
	// Several tokens may be comma separated; any of them grants access.
	if tok, _, _ := strings.Cut(tokens, ","); tok != "" {
		q.Set("token", tok)
	}
	return a.objectURL(userID) + "?" + q.Encode()
}
