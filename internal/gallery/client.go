package gallery

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/time/rate"

	"github.com/five82/rotary/internal/album"
	"github.com/five82/rotary/internal/viewer"

	// Frame formats beyond the imaging defaults.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// AlbumFetcher lists albums. It is implemented by *Client and faked in tests.
type AlbumFetcher interface {
	FetchAlbums(ctx context.Context) ([]album.Album, error)
	FetchAlbum(ctx context.Context, id string) (*album.Album, error)
}

var (
	_ AlbumFetcher       = (*Client)(nil)
	_ viewer.FrameSource = (*Client)(nil)
	_ viewer.Loader      = (*Client)(nil)
)

// Client talks to the rotary album API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	images    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

const (
	defaultAPIBind   = "127.0.0.1:3001"
	defaultUserAgent = "rotary/0.1"
	requestTimeout   = 5 * time.Second
	imageTimeout     = 30 * time.Second
)

// Option customizes a Client.
type Option func(*Client)

// WithImageRate paces image requests to perSecond with a burst of the same
// size. Zero or negative disables pacing.
func WithImageRate(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		images:    &http.Client{Timeout: imageTimeout},
		limiter:   rate.NewLimiter(rate.Inf, 0),
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root, e.g. http://127.0.0.1:3001.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// FetchAlbums retrieves every album.
func (c *Client) FetchAlbums(ctx context.Context) ([]album.Album, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var albums []album.Album
	if err := c.do(ctx, "/api/albums", &albums); err != nil {
		return nil, err
	}
	return albums, nil
}

// FetchAlbum retrieves one album.
func (c *Client) FetchAlbum(ctx context.Context, id string) (*album.Album, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("album id required")
	}
	var a album.Album
	if err := c.do(ctx, "/api/albums/"+url.PathEscape(id), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// FetchImageInfo retrieves size, dimensions and EXIF for one frame.
func (c *Client) FetchImageInfo(ctx context.Context, albumID, name string) (*album.ImageInfo, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var info album.ImageInfo
	path := "/api/albums/" + url.PathEscape(albumID) + "/images/" + url.PathEscape(name) + "/info"
	if err := c.do(ctx, path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FrameList returns the ordered frame file names of an album.
func (c *Client) FrameList(ctx context.Context, albumID string) ([]string, error) {
	a, err := c.FetchAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	return a.Metadata.Images, nil
}

// ImageURL is the primary URL of a frame.
func (c *Client) ImageURL(albumID, name string) string {
	return c.BaseURL() + "/api/albums/" + url.PathEscape(albumID) + "/images/" + url.PathEscape(name)
}

// StaticURL is the fallback URL of a frame.
func (c *Client) StaticURL(albumID, name string) string {
	return c.BaseURL() + "/static/albums/" + url.PathEscape(albumID) + "/" + url.PathEscape(name)
}

// Resolver adapts the client to the viewer's URL resolver for one album.
func (c *Client) Resolver(albumID string) viewer.URLResolver {
	return albumResolver{client: c, albumID: albumID}
}

type albumResolver struct {
	client  *Client
	albumID string
}

func (r albumResolver) Primary(id string) string  { return r.client.ImageURL(r.albumID, id) }
func (r albumResolver) Fallback(id string) string { return r.client.StaticURL(r.albumID, id) }

// LoadImage fetches and decodes one frame, applying its EXIF orientation.
func (c *Client) LoadImage(ctx context.Context, rawURL string) (image.Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for image slot: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.images.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("image %s returned status %d", rawURL, resp.StatusCode)
	}
	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func (e envelope) reason() string {
	switch {
	case e.Error != "" && e.Message != "":
		return e.Error + ": " + e.Message
	case e.Error != "":
		return e.Error
	default:
		return e.Message
	}
}

func (c *Client) do(ctx context.Context, path string, dest any) error {
	rel, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parse path %q: %w", path, err)
	}
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if resp.StatusCode >= 400 {
		if decodeErr == nil && env.reason() != "" {
			return fmt.Errorf("api %s returned status %d: %s", path, resp.StatusCode, env.reason())
		}
		return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		return fmt.Errorf("api %s failed: %s", path, env.reason())
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
