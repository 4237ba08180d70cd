package models

import "time"

// StoredFile describes an uploaded object after it has been written.
type StoredFile struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}
