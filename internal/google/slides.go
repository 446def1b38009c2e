package google

import (
	"context"
	"fmt"

	"google.golang.org/api/slides/v1"
)

// Page is the part of a slide the builder reads back.
type Page struct {
	ObjectID   string
	ElementIDs []string
}

// Slides wraps presentation reads and batched mutations.
type Slides struct {
	svc *slides.Service
}

func NewSlides(svc *slides.Service) *Slides {
	return &Slides{svc: svc}
}

// SlidePages lists the slides of presentationID in order.
func (s *Slides) SlidePages(ctx context.Context, presentationID string) ([]Page, error) {
	pres, err := s.svc.Presentations.Get(presentationID).
		Fields("slides(objectId,pageElements(objectId))").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("slides get %s: %w", presentationID, err)
	}
	return pagesOf(pres), nil
}

func pagesOf(pres *slides.Presentation) []Page {
	if pres == nil {
		return nil
	}
	pages := make([]Page, 0, len(pres.Slides))
	for _, sl := range pres.Slides {
		if sl == nil {
			continue
		}
		p := Page{ObjectID: sl.ObjectId}
		for _, el := range sl.PageElements {
			if el != nil && el.ObjectId != "" {
				p.ElementIDs = append(p.ElementIDs, el.ObjectId)
			}
		}
		pages = append(pages, p)
	}
	return pages
}

// BatchUpdate applies requests to presentationID in one call.
func (s *Slides) BatchUpdate(ctx context.Context, presentationID string, requests []*slides.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := s.svc.Presentations.BatchUpdate(presentationID, &slides.BatchUpdatePresentationRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("slides batch update %s: %w", presentationID, err)
	}
	return nil
}
