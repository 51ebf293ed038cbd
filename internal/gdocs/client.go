// Package gdocs wraps the Google Drive and Slides APIs used to list templates,
// copy them and edit the copies.
package gdocs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gnemet/PromptDeck/internal/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/slides/v1"
)

const (
	MimePresentation = "application/vnd.google-apps.presentation"
	MimePNG          = "image/png"
	MimeJPEG         = "image/jpeg"
	MimePPTX         = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	MimePDF          = "application/pdf"
)

var scopes = []string{
	drive.DriveScope,
	slides.PresentationsScope,
}

const fileFields = "id, name, mimeType, thumbnailLink, webViewLink"

// Client is an authenticated Drive + Slides client.
type Client struct {
	drive   *drive.Service
	slides  *slides.Service
	log     *zap.Logger
	workers int
}

// NewClient builds a client from service-account settings. Every missing
// credential variable is reported at once.
func NewClient(ctx context.Context, cfg config.GoogleConfig, log *zap.Logger) (*Client, error) {
	if missing := cfg.Missing(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	key, err := json.Marshal(cfg.ServiceAccount)
	if err != nil {
		return nil, fmt.Errorf("encoding service account: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(key, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing service account: %w", err)
	}

	return NewClientWithOptions(ctx, log, cfg.ThumbnailWorkers, option.WithTokenSource(jwt.TokenSource(ctx)))
}

// NewClientWithOptions builds a client from raw API options.
func NewClientWithOptions(ctx context.Context, log *zap.Logger, workers int, opts ...option.ClientOption) (*Client, error) {
	driveSrv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	slidesSrv, err := slides.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating slides service: %w", err)
	}
	if workers <= 0 {
		workers = 8
	}
	return &Client{drive: driveSrv, slides: slidesSrv, log: log, workers: workers}, nil
}

// ListFiles returns the non-trashed files of a folder matching any of the mime types.
func (c *Client) ListFiles(ctx context.Context, folderID string, mimeTypes []string) ([]*drive.File, error) {
	resp, err := c.drive.Files.List().
		Q(FolderQuery(folderID, mimeTypes)).
		Fields("files(" + fileFields + ")").
		Spaces("drive").
		PageSize(50).
		OrderBy("name").
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("list files", err)
	}
	return resp.Files, nil
}

// FolderQuery builds the Drive search expression used by ListFiles.
func FolderQuery(folderID string, mimeTypes []string) string {
	clauses := make([]string, 0, len(mimeTypes))
	for _, mt := range mimeTypes {
		clauses = append(clauses, fmt.Sprintf("mimeType='%s'", escapeQuery(mt)))
	}
	q := fmt.Sprintf("'%s' in parents and trashed=false", escapeQuery(folderID))
	if len(clauses) > 0 {
		q += " and (" + strings.Join(clauses, " or ") + ")"
	}
	return q
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

// GetFile fetches file metadata; it doubles as an accessibility probe.
func (c *Client) GetFile(ctx context.Context, id string) (*drive.File, error) {
	f, err := c.drive.Files.Get(id).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, classify("get file", err)
	}
	return f, nil
}

func (c *Client) GetPresentation(ctx context.Context, id string) (*slides.Presentation, error) {
	p, err := c.slides.Presentations.Get(id).Context(ctx).Do()
	if err != nil {
		return nil, classify("get presentation", err)
	}
	return p, nil
}

// Thumbnail returns the content URL of a rendered page.
func (c *Client) Thumbnail(ctx context.Context, presentationID, pageID string) (string, error) {
	th, err := c.slides.Presentations.Pages.GetThumbnail(presentationID, pageID).
		ThumbnailPropertiesThumbnailSize("LARGE").
		Context(ctx).
		Do()
	if err != nil {
		return "", classify("get thumbnail", err)
	}
	return th.ContentUrl, nil
}

// SlideThumbnails fetches every page thumbnail concurrently. A failing page
// yields "" at its position instead of failing the listing.
func (c *Client) SlideThumbnails(ctx context.Context, presentationID string, pages []*slides.Page) []string {
	urls := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, page := range pages {
		g.Go(func() error {
			url, err := c.Thumbnail(gctx, presentationID, page.ObjectId)
			if err != nil {
				c.log.Warn("thumbnail unavailable",
					zap.String("presentation_id", presentationID),
					zap.String("page_id", page.ObjectId),
					zap.Error(err))
				return nil
			}
			urls[i] = url
			return nil
		})
	}
	_ = g.Wait()
	return urls
}

// FirstSlideThumbnail returns "" when the presentation is empty or unreadable.
func (c *Client) FirstSlideThumbnail(ctx context.Context, presentationID string) string {
	p, err := c.GetPresentation(ctx, presentationID)
	if err != nil {
		c.log.Warn("first slide thumbnail unavailable", zap.String("presentation_id", presentationID), zap.Error(err))
		return ""
	}
	if len(p.Slides) == 0 {
		return ""
	}
	url, err := c.Thumbnail(ctx, presentationID, p.Slides[0].ObjectId)
	if err != nil {
		c.log.Warn("first slide thumbnail unavailable", zap.String("presentation_id", presentationID), zap.Error(err))
		return ""
	}
	return url
}

// CopyFile copies a file into parentFolder under the given name.
func (c *Client) CopyFile(ctx context.Context, id, name, parentFolder string) (*drive.File, error) {
	dst := &drive.File{Name: name}
	if parentFolder != "" {
		dst.Parents = []string{parentFolder}
	}
	f, err := c.drive.Files.Copy(id, dst).
		Fields("id, name, webViewLink").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("copy file", err)
	}
	return f, nil
}

func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if err := c.drive.Files.Delete(id).SupportsAllDrives(true).Context(ctx).Do(); err != nil {
		return classify("delete file", err)
	}
	return nil
}

// BatchUpdate submits requests as a single atomic batch. An empty batch is a no-op.
func (c *Client) BatchUpdate(ctx context.Context, presentationID string, requests []*slides.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := c.slides.Presentations.BatchUpdate(presentationID, &slides.BatchUpdatePresentationRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return classify("batch update", err)
	}
	return nil
}

// Export streams the file converted to mimeType. The caller closes the reader.
func (c *Client) Export(ctx context.Context, id, mimeType string) (io.ReadCloser, error) {
	resp, err := c.drive.Files.Export(id, mimeType).Context(ctx).Download()
	if err != nil {
		return nil, classify("export file", err)
	}
	return resp.Body, nil
}
