package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

func testOptions(srv *httptest.Server) []option.ClientOption {
	return []option.ClientOption{
		option.WithEndpoint(srv.URL + "/"),
		option.WithHTTPClient(srv.Client()),
	}
}

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-access"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestBuildNotesQuery(t *testing.T) {
	since := time.Date(2025, 3, 10, 8, 0, 0, 0, time.FixedZone("X", 3600))

	q := BuildNotesQuery(since)

	assert.Equal(t,
		"(name contains 'Meeting notes' or name contains 'Meeting transcript') and "+
			"mimeType = 'application/vnd.google-apps.document' and "+
			"modifiedTime > '2025-03-10T07:00:00Z' and trashed = false",
		q)
}

func TestDriveClient_ListCandidatesFollowsPages(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/files"), r.URL.Path)
		queries = append(queries, r.URL.Query().Get("q"))

		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, map[string]interface{}{
				"files": []map[string]string{
					{"id": "doc1", "name": "Meeting notes: Acme Sync", "createdTime": "2025-03-10T09:00:00Z", "webViewLink": "https://docs.google.com/document/d/doc1"},
				},
				"nextPageToken": "page-2",
			})
			return
		}
		assert.Equal(t, "page-2", r.URL.Query().Get("pageToken"))
		writeJSON(w, map[string]interface{}{
			"files": []map[string]string{
				{"id": "doc0", "name": "Meeting transcript: Board", "createdTime": "2025-03-09T09:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	client := NewDriveClient(zap.NewNop(), time.Second, testOptions(srv)...)
	docs, err := client.ListCandidates(context.Background(), staticToken(), time.Now().Add(-24*time.Hour))
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "doc1", docs[0].ID, "listing order is preserved")
	assert.Equal(t, "Meeting notes: Acme Sync", docs[0].Name)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), docs[0].CreatedTime.UTC())
	assert.Equal(t, "doc0", docs[1].ID)

	require.Len(t, queries, 2)
	assert.Contains(t, queries[0], "mimeType = 'application/vnd.google-apps.document'")
}

func TestDriveClient_ListCandidatesError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		writeJSON(w, map[string]interface{}{"error": map[string]interface{}{"code": 401, "message": "invalid credentials"}})
	}))
	defer srv.Close()

	client := NewDriveClient(zap.NewNop(), time.Second, testOptions(srv)...)
	_, err := client.ListCandidates(context.Background(), staticToken(), time.Now())
	assert.Error(t, err)
}

func TestDocsClient_FetchTextRetriesTransientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/documents/doc1"), r.URL.Path)
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			writeJSON(w, map[string]interface{}{"error": map[string]interface{}{"code": 503, "message": "backend error"}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"documentId": "doc1",
			"body": map[string]interface{}{
				"content": []interface{}{
					map[string]interface{}{"paragraph": map[string]interface{}{
						"elements": []interface{}{
							map[string]interface{}{"textRun": map[string]interface{}{"content": "Thanks, contact me at "}},
							map[string]interface{}{"textRun": map[string]interface{}{"content": "jane@acme.com for follow-up.\n"}},
						},
					}},
				},
			},
		})
	}))
	defer srv.Close()

	client := NewDocsClient(zap.NewNop(), 10*time.Second, testOptions(srv)...)
	text, err := client.FetchText(context.Background(), staticToken(), "doc1")
	require.NoError(t, err)

	assert.Equal(t, "Thanks, contact me at jane@acme.com for follow-up.\n", text)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestDocsClient_FetchTextNotFound(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		writeJSON(w, map[string]interface{}{"error": map[string]interface{}{"code": 404, "message": "not found"}})
	}))
	defer srv.Close()

	client := NewDocsClient(zap.NewNop(), 10*time.Second, testOptions(srv)...)
	_, err := client.FetchText(context.Background(), staticToken(), "missing")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "4xx is not retried")
}

func TestFlattenDocument(t *testing.T) {
	para := func(runs ...string) *docs.StructuralElement {
		p := &docs.Paragraph{}
		for _, r := range runs {
			p.Elements = append(p.Elements, &docs.ParagraphElement{TextRun: &docs.TextRun{Content: r}})
		}
		return &docs.StructuralElement{Paragraph: p}
	}

	t.Run("nil and empty", func(t *testing.T) {
		assert.Equal(t, "", FlattenDocument(nil))
		assert.Equal(t, "", FlattenDocument(&docs.Document{}))
	})

	t.Run("paragraphs tables and toc in order", func(t *testing.T) {
		doc := &docs.Document{Body: &docs.Body{Content: []*docs.StructuralElement{
			{SectionBreak: &docs.SectionBreak{}},
			{TableOfContents: &docs.TableOfContents{Content: []*docs.StructuralElement{para("Summary\n")}}},
			para("Attendees: ", "bob@x.io", "\n"),
			{Table: &docs.Table{TableRows: []*docs.TableRow{
				{TableCells: []*docs.TableCell{
					{Content: []*docs.StructuralElement{para("a1")}},
					{Content: []*docs.StructuralElement{para("b1")}},
				}},
			}}},
			{Paragraph: &docs.Paragraph{Elements: []*docs.ParagraphElement{
				{InlineObjectElement: &docs.InlineObjectElement{}},
				{TextRun: &docs.TextRun{Content: "end"}},
			}}},
		}}}

		assert.Equal(t, "Summary\nAttendees: bob@x.io\na1b1end", FlattenDocument(doc))
	})
}
