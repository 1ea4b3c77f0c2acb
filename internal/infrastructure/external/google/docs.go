package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/ftfc/crm/pkg/jobcontext"
)

// DocsClient reads Google Docs bodies as plain text
type DocsClient struct {
	logger     *zap.Logger
	maxElapsed time.Duration
	options    []option.ClientOption
}

// NewDocsClient creates a Docs client
func NewDocsClient(logger *zap.Logger, maxElapsed time.Duration, opts ...option.ClientOption) *DocsClient {
	return &DocsClient{
		logger:     logger,
		maxElapsed: maxElapsed,
		options:    opts,
	}
}

// FetchText fetches a document and flattens its body to plain text
func (c *DocsClient) FetchText(ctx context.Context, ts oauth2.TokenSource, docID string) (string, error) {
	svc, err := docs.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, c.options...)...)
	if err != nil {
		return "", fmt.Errorf("failed to create docs service: %w", err)
	}

	var doc *docs.Document
	err = jobcontext.Retry(ctx, c.maxElapsed, func() error {
		var callErr error
		doc, callErr = svc.Documents.Get(docID).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch document %s: %w", docID, err)
	}

	return FlattenDocument(doc), nil
}

// FlattenDocument concatenates every text run in body order. Tables and the
// table of contents are walked in place; all formatting is dropped.
func FlattenDocument(doc *docs.Document) string {
	if doc == nil || doc.Body == nil {
		return ""
	}
	var sb strings.Builder
	writeElements(&sb, doc.Body.Content)
	return sb.String()
}

func writeElements(sb *strings.Builder, elements []*docs.StructuralElement) {
	for _, el := range elements {
		if el == nil {
			continue
		}
		switch {
		case el.Paragraph != nil:
			for _, pe := range el.Paragraph.Elements {
				if pe != nil && pe.TextRun != nil {
					sb.WriteString(pe.TextRun.Content)
				}
			}
		case el.Table != nil:
			for _, row := range el.Table.TableRows {
				if row == nil {
					continue
				}
				for _, cell := range row.TableCells {
					if cell != nil {
						writeElements(sb, cell.Content)
					}
				}
			}
		case el.TableOfContents != nil:
			writeElements(sb, el.TableOfContents.Content)
		}
	}
}
