package models

import "fmt"

const presentationURLFormat = "https://docs.google.com/presentation/d/%s/edit"

// PresentationURL derives the share URL of a hosted presentation.
func PresentationURL(id string) string {
	return fmt.Sprintf(presentationURLFormat, id)
}

// BuildResult summarizes a finished presentation build.
type BuildResult struct {
	PresentationID  string `json:"presentationId"`
	URL             string `json:"presentationUrl"`
	TemplateSlides  int    `json:"templateSlides"`
	PopulatedSlides int    `json:"populatedSlides"`
	DeletedSlides   int    `json:"deletedSlides"`
	DroppedRecords  int    `json:"droppedRecords"`
}
