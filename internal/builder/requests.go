package builder

import (
	"google.golang.org/api/slides/v1"

	"pdf2slides/internal/models"
)

// Text box geometry in points.
const (
	boxWidth      = 600
	titleHeight   = 80
	contentHeight = 300
	marginLeft    = 40
	titleTop      = 20
	contentTop    = 100
	titleFontSize = 28
)

// slideLayout names the shapes created on one slide.
type slideLayout struct {
	PageID    string
	TitleID   string
	ContentID string
}

// populateRequests builds the single batch that clears a slide and writes record into it.
func populateRequests(layout slideLayout, existing []string, record models.SlideRecord) []*slides.Request {
	reqs := make([]*slides.Request, 0, len(existing)+7)
	for _, id := range existing {
		reqs = append(reqs, &slides.Request{
			DeleteObject: &slides.DeleteObjectRequest{ObjectId: id},
		})
	}
	reqs = append(reqs,
		textBox(layout.TitleID, layout.PageID, titleTop, titleHeight),
		textBox(layout.ContentID, layout.PageID, contentTop, contentHeight),
	)

	title := record.Title
	if record.Subtitle != "" {
		title = title + "\n" + record.Subtitle
	}
	// the API rejects empty insertions, so blank text leaves the box empty
	if title != "" {
		reqs = append(reqs,
			&slides.Request{InsertText: &slides.InsertTextRequest{
				ObjectId:       layout.TitleID,
				Text:           title,
				InsertionIndex: 0,
			}},
			&slides.Request{UpdateTextStyle: &slides.UpdateTextStyleRequest{
				ObjectId: layout.TitleID,
				Style: &slides.TextStyle{
					Bold:     true,
					FontSize: &slides.Dimension{Magnitude: titleFontSize, Unit: "PT"},
				},
				TextRange: &slides.Range{Type: "ALL"},
				Fields:    "bold,fontSize",
			}},
		)
	}
	if body := record.BulletText(); body != "" {
		reqs = append(reqs, &slides.Request{InsertText: &slides.InsertTextRequest{
			ObjectId:       layout.ContentID,
			Text:           body,
			InsertionIndex: 0,
		}})
	}
	return reqs
}

func textBox(objectID, pageID string, top, height float64) *slides.Request {
	return &slides.Request{CreateShape: &slides.CreateShapeRequest{
		ObjectId:  objectID,
		ShapeType: "TEXT_BOX",
		ElementProperties: &slides.PageElementProperties{
			PageObjectId: pageID,
			Size: &slides.Size{
				Width:  &slides.Dimension{Magnitude: boxWidth, Unit: "PT"},
				Height: &slides.Dimension{Magnitude: height, Unit: "PT"},
			},
			Transform: &slides.AffineTransform{
				ScaleX:     1,
				ScaleY:     1,
				TranslateX: marginLeft,
				TranslateY: top,
				Unit:       "PT",
			},
		},
	}}
}

// deleteSlidesRequests removes the given pages in one batch.
func deleteSlidesRequests(pageIDs []string) []*slides.Request {
	reqs := make([]*slides.Request, 0, len(pageIDs))
	for _, id := range pageIDs {
		reqs = append(reqs, &slides.Request{DeleteObject: &slides.DeleteObjectRequest{ObjectId: id}})
	}
	return reqs
}
