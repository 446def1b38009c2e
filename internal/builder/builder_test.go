package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/slides/v1"

	"pdf2slides/internal/apperr"
	"pdf2slides/internal/google"
	"pdf2slides/internal/logging"
	"pdf2slides/internal/models"
	"pdf2slides/internal/worker"
)

type fakeDrive struct {
	mu        sync.Mutex
	uploaded  []byte
	upMime    string
	upName    string
	copyName  string
	shared    []string
	deleted   []string
	failShare bool
}

func (d *fakeDrive) UploadPresentation(_ context.Context, name string, r io.Reader, sourceMime string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.uploaded, d.upMime, d.upName = data, sourceMime, name
	return "upload-1", nil
}

func (d *fakeDrive) Copy(_ context.Context, fileID, name string) (string, error) {
	if fileID != "upload-1" {
		return "", fmt.Errorf("unknown file %s", fileID)
	}
	d.copyName = name
	return "pres-1", nil
}

func (d *fakeDrive) ShareAnyoneReader(_ context.Context, fileID string) error {
	if d.failShare {
		return errors.New("permission denied")
	}
	d.shared = append(d.shared, fileID)
	return nil
}

func (d *fakeDrive) Delete(_ context.Context, fileID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, fileID)
	return nil
}

// fakeEditor keeps an in-memory model of slides and their text boxes.
type fakeEditor struct {
	mu      sync.Mutex
	pages   []google.Page
	text    map[string]string
	shapes  map[string]string // shape id -> page id
	bold    map[string]bool
	batches int
	reads   []int
	failAt  int
}

func newFakeEditor(slideCount int) *fakeEditor {
	e := &fakeEditor{
		text:   make(map[string]string),
		shapes: make(map[string]string),
		bold:   make(map[string]bool),
	}
	for i := 0; i < slideCount; i++ {
		page := google.Page{
			ObjectID:   fmt.Sprintf("p%d", i+1),
			ElementIDs: []string{fmt.Sprintf("p%d_title", i+1), fmt.Sprintf("p%d_body", i+1)},
		}
		e.pages = append(e.pages, page)
		for _, id := range page.ElementIDs {
			e.shapes[id] = page.ObjectID
			e.text[id] = "{{placeholder}}"
		}
	}
	return e
}

func (e *fakeEditor) SlidePages(context.Context, string) ([]google.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reads = append(e.reads, len(e.pages))
	out := make([]google.Page, len(e.pages))
	copy(out, e.pages)
	return out, nil
}

func (e *fakeEditor) BatchUpdate(_ context.Context, _ string, reqs []*slides.Request) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches++
	if e.failAt > 0 && e.batches == e.failAt {
		return errors.New("quota exceeded")
	}
	for _, r := range reqs {
		switch {
		case r.DeleteObject != nil:
			id := r.DeleteObject.ObjectId
			if e.deletePage(id) {
				continue
			}
			if _, ok := e.shapes[id]; !ok {
				return fmt.Errorf("object %s not found", id)
			}
			delete(e.shapes, id)
			delete(e.text, id)
		case r.CreateShape != nil:
			e.shapes[r.CreateShape.ObjectId] = r.CreateShape.ElementProperties.PageObjectId
			e.text[r.CreateShape.ObjectId] = ""
		case r.InsertText != nil:
			if r.InsertText.Text == "" {
				return errors.New("insertion text cannot be empty")
			}
			e.text[r.InsertText.ObjectId] += r.InsertText.Text
		case r.UpdateTextStyle != nil:
			e.bold[r.UpdateTextStyle.ObjectId] = r.UpdateTextStyle.Style.Bold
		}
	}
	return nil
}

func (e *fakeEditor) deletePage(id string) bool {
	for i, p := range e.pages {
		if p.ObjectID == id {
			e.pages = append(e.pages[:i], e.pages[i+1:]...)
			return true
		}
	}
	return false
}

// texts returns the text of every shape on page, keyed by shape prefix.
func (e *fakeEditor) texts(pageID string) map[string]string {
	out := make(map[string]string)
	for id, page := range e.shapes {
		if page != pageID {
			continue
		}
		switch {
		case len(id) > 6 && id[:6] == "title_":
			out["title"] = e.text[id]
		case len(id) > 5 && id[:5] == "body_":
			out["body"] = e.text[id]
		default:
			out[id] = e.text[id]
		}
	}
	return out
}

func writeTemplate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "template.pptx")
	require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04fake-pptx"), 0o600))
	return path
}

func newTestBuilder(t *testing.T, drive *fakeDrive, editor *fakeEditor) *Builder {
	t.Helper()
	manager := worker.NewManager(worker.Config{}, logging.Discard())
	t.Cleanup(manager.Close)
	return New(drive, editor, manager, Options{}, logging.Discard())
}

func records(n int) []models.SlideRecord {
	out := make([]models.SlideRecord, n)
	for i := range out {
		out[i] = models.SlideRecord{
			SlideNumber: i + 1,
			Title:       fmt.Sprintf("Slide %d", i+1),
			Content:     []string{"first point", "second point"},
		}
	}
	return out
}

func TestBuildMoreTemplateSlidesThanRecords(t *testing.T) {
	drive := &fakeDrive{}
	editor := newFakeEditor(5)
	b := newTestBuilder(t, drive, editor)
	path := writeTemplate(t)

	res, err := b.Build(context.Background(), path, records(2))
	require.NoError(t, err)

	assert.Equal(t, 5, res.TemplateSlides)
	assert.Equal(t, 2, res.PopulatedSlides)
	assert.Equal(t, 3, res.DeletedSlides)
	assert.Zero(t, res.DroppedRecords)
	require.Len(t, editor.pages, 2)
	assert.Equal(t, "p1", editor.pages[0].ObjectID)
	assert.Equal(t, "p2", editor.pages[1].ObjectID)

	got := editor.texts("p2")
	assert.Equal(t, map[string]string{
		"title": "Slide 2",
		"body":  "• first point\n• second point",
	}, got)
	// 2 populate batches + 1 delete batch
	assert.Equal(t, 3, editor.batches)

	assert.Equal(t, "Uploaded Template", drive.upName)
	assert.Equal(t, PPTXMimeType, drive.upMime)
	assert.Equal(t, "Generated PPT", drive.copyName)
	assert.Equal(t, []string{"pres-1"}, drive.shared)
	assert.Equal(t, []string{"upload-1"}, drive.deleted)
	assert.NoFileExists(t, path)
}

func TestBuildFewerTemplateSlidesThanRecords(t *testing.T) {
	editor := newFakeEditor(2)
	b := newTestBuilder(t, &fakeDrive{}, editor)

	res, err := b.Build(context.Background(), writeTemplate(t), records(4))
	require.NoError(t, err)

	assert.Equal(t, 2, res.PopulatedSlides)
	assert.Zero(t, res.DeletedSlides)
	assert.Equal(t, 2, res.DroppedRecords)
	assert.Len(t, editor.pages, 2)
	assert.Equal(t, 2, editor.batches)
	assert.Equal(t, "Slide 1", editor.texts("p1")["title"])
}

func TestBuildEmptyContentLeavesEmptyBox(t *testing.T) {
	editor := newFakeEditor(1)
	b := newTestBuilder(t, &fakeDrive{}, editor)

	rec := []models.SlideRecord{{SlideNumber: 1, Title: "Only a title", Content: []string{}}}
	_, err := b.Build(context.Background(), writeTemplate(t), rec)
	require.NoError(t, err)

	got := editor.texts("p1")
	assert.Equal(t, "Only a title", got["title"])
	body, ok := got["body"]
	assert.True(t, ok, "content box should exist")
	assert.Empty(t, body)
	assert.NotContains(t, got, "p1_title", "template elements should be removed")
}

func TestBuildSubtitleAndBoldTitle(t *testing.T) {
	editor := newFakeEditor(1)
	b := newTestBuilder(t, &fakeDrive{}, editor)

	rec := []models.SlideRecord{{SlideNumber: 1, Title: "Main", Subtitle: "Sub", Content: []string{"a"}}}
	_, err := b.Build(context.Background(), writeTemplate(t), rec)
	require.NoError(t, err)

	assert.Equal(t, "Main\nSub", editor.texts("p1")["title"])
	var boldTitles int
	for id, bold := range editor.bold {
		if bold && editor.shapes[id] == "p1" {
			boldTitles++
		}
	}
	assert.Equal(t, 1, boldTitles)
}

func TestBuildReadsTemplateCountBeforeEdits(t *testing.T) {
	editor := newFakeEditor(4)
	b := newTestBuilder(t, &fakeDrive{}, editor)

	res, err := b.Build(context.Background(), writeTemplate(t), records(1))
	require.NoError(t, err)
	require.Len(t, editor.reads, 1)
	assert.Equal(t, 4, editor.reads[0])
	assert.Equal(t, 4, res.TemplateSlides)
}

func TestBuildQuarterlyResultsScenario(t *testing.T) {
	editor := newFakeEditor(3)
	b := newTestBuilder(t, &fakeDrive{}, editor)

	rec := models.Renumber([]models.SlideRecord{{
		Title:   "Quarterly Results",
		Content: []string{"Quarterly results improved across all regions this period"},
	}})
	res, err := b.Build(context.Background(), writeTemplate(t), rec)
	require.NoError(t, err)

	assert.Equal(t, "https://docs.google.com/presentation/d/pres-1/edit", res.URL)
	assert.Equal(t, 1, res.PopulatedSlides)
	assert.Equal(t, 2, res.DeletedSlides)
	require.Len(t, editor.pages, 1)
	assert.Equal(t, "Quarterly Results", editor.texts("p1")["title"])
}

func TestBuildRemoteFailureIsBuildError(t *testing.T) {
	drive := &fakeDrive{failShare: true}
	b := newTestBuilder(t, drive, newFakeEditor(1))
	path := writeTemplate(t)

	_, err := b.Build(context.Background(), path, records(1))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBuild))
	// upload artifact and local file are still cleaned up
	assert.Equal(t, []string{"upload-1"}, drive.deleted)
	assert.NoFileExists(t, path)
}

func TestBuildBatchFailureStopsBuild(t *testing.T) {
	editor := newFakeEditor(3)
	editor.failAt = 2
	b := newTestBuilder(t, &fakeDrive{}, editor)

	_, err := b.Build(context.Background(), writeTemplate(t), records(3))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBuild))
	assert.Contains(t, err.Error(), "populate slide 2")
	assert.Equal(t, 2, editor.batches)
}

func TestBuildRejectsEmptyRecords(t *testing.T) {
	drive := &fakeDrive{}
	editor := newFakeEditor(3)
	b := newTestBuilder(t, drive, editor)
	path := writeTemplate(t)

	res, err := b.Build(context.Background(), path, nil)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, apperr.Is(err, apperr.KindBuild))
	assert.Nil(t, drive.uploaded, "nothing should be uploaded")
	assert.Zero(t, editor.batches)
	assert.Len(t, editor.pages, 3)
	assert.NoFileExists(t, path)
}

func TestBuildMissingTemplate(t *testing.T) {
	b := newTestBuilder(t, &fakeDrive{}, newFakeEditor(1))
	_, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "nope.pptx"), records(1))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindBuild))
}

func TestPopulateRequestsSkipsEmptyText(t *testing.T) {
	layout := slideLayout{PageID: "p", TitleID: "title_x", ContentID: "body_x"}
	reqs := populateRequests(layout, []string{"a", "b"}, models.SlideRecord{})
	require.Len(t, reqs, 4)
	assert.NotNil(t, reqs[0].DeleteObject)
	assert.NotNil(t, reqs[1].DeleteObject)
	assert.Equal(t, "TEXT_BOX", reqs[2].CreateShape.ShapeType)
	assert.Equal(t, float64(titleHeight), reqs[2].CreateShape.ElementProperties.Size.Height.Magnitude)
	assert.Equal(t, float64(contentHeight), reqs[3].CreateShape.ElementProperties.Size.Height.Magnitude)
	assert.Equal(t, float64(boxWidth), reqs[3].CreateShape.ElementProperties.Size.Width.Magnitude)
}
