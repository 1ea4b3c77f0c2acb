package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/ftfc/crm/internal/domain/entities"
	"github.com/ftfc/crm/pkg/jobcontext"
)

// GoogleDocMimeType is the mime type of native Google Docs
const GoogleDocMimeType = "application/vnd.google-apps.document"

// NoteTitlePatterns are the title fragments Gemini uses for meeting notes
var NoteTitlePatterns = []string{"Meeting notes", "Meeting transcript"}

const listFields = "files(id,name,createdTime,webViewLink),nextPageToken"

// DriveClient lists meeting-note documents in a member's Drive
type DriveClient struct {
	logger     *zap.Logger
	maxElapsed time.Duration
	options    []option.ClientOption
}

// NewDriveClient creates a Drive client. Extra options are appended to the
// per-call token source option.
func NewDriveClient(logger *zap.Logger, maxElapsed time.Duration, opts ...option.ClientOption) *DriveClient {
	return &DriveClient{
		logger:     logger,
		maxElapsed: maxElapsed,
		options:    opts,
	}
}

// BuildNotesQuery returns the Drive search expression for notes modified after since
func BuildNotesQuery(since time.Time) string {
	titles := make([]string, 0, len(NoteTitlePatterns))
	for _, p := range NoteTitlePatterns {
		titles = append(titles, fmt.Sprintf("name contains '%s'", p))
	}
	return fmt.Sprintf("(%s) and mimeType = '%s' and modifiedTime > '%s' and trashed = false",
		strings.Join(titles, " or "),
		GoogleDocMimeType,
		since.UTC().Format(time.RFC3339),
	)
}

// ListCandidates returns every matching document in listing order, following all pages
func (c *DriveClient) ListCandidates(ctx context.Context, ts oauth2.TokenSource, since time.Time) ([]entities.CandidateDocument, error) {
	svc, err := drive.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, c.options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	query := BuildNotesQuery(since)
	var (
		candidates []entities.CandidateDocument
		pageToken  string
	)
	for {
		var page *drive.FileList
		err := jobcontext.Retry(ctx, c.maxElapsed, func() error {
			call := svc.Files.List().
				Q(query).
				Fields(listFields).
				PageSize(100).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var callErr error
			page, callErr = call.Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list drive files: %w", err)
		}

		for _, f := range page.Files {
			candidates = append(candidates, toCandidate(f))
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	c.logger.Debug("Listed meeting note candidates",
		zap.String("run_id", jobcontext.GetRunID(ctx)),
		zap.String("trigger", jobcontext.GetTrigger(ctx)),
		zap.String("member", jobcontext.GetMember(ctx)),
		zap.Int("count", len(candidates)),
	)
	return candidates, nil
}

func toCandidate(f *drive.File) entities.CandidateDocument {
	doc := entities.CandidateDocument{
		ID:          f.Id,
		Name:        f.Name,
		WebViewLink: f.WebViewLink,
	}
	if t, err := time.Parse(time.RFC3339, f.CreatedTime); err == nil {
		doc.CreatedTime = t
	}
	return doc
}
