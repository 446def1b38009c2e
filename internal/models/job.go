package models

import "time"

// Job ties an extraction call to the later build call.
type Job struct {
	ID               string        `json:"id"`
	FileName         string        `json:"file_name"`
	PageCount        int           `json:"page_count"`
	ExtractedText    string        `json:"extracted_text"`
	Slides           []SlideRecord `json:"slides"`
	StructuringError string        `json:"structuring_error,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	ExpiresAt        time.Time     `json:"expires_at"`
}

// Ready reports whether the job holds usable slides.
func (j *Job) Ready() bool {
	return j != nil && j.StructuringError == "" && len(j.Slides) > 0
}

// Unavailable explains why a job cannot be built.
func (j *Job) Unavailable() string {
	switch {
	case j == nil:
		return "job missing"
	case j.StructuringError != "":
		return j.StructuringError
	case len(j.Slides) == 0:
		return "no slides were generated"
	default:
		return ""
	}
}

// Expired reports whether the job outlived its TTL.
func (j *Job) Expired(now time.Time) bool {
	return !j.ExpiresAt.IsZero() && !now.Before(j.ExpiresAt)
}
