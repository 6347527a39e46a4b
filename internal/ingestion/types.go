// Package ingestion accepts new search-index blobs, packs them into
// versioned containers in the shared data directory and announces them on
// Kafka so every searcher reloads.
package ingestion

import "time"

// PublishResponse is returned for an accepted blob. Status is "published"
// for a new version and "duplicate" when the same content was published
// before.
type PublishResponse struct {
	Version string `json:"version"`
	Path    string `json:"path"`
	Crates  int    `json:"crates"`
	Items   int    `json:"items"`
	Status  string `json:"status"`
}

// EventIndexPublished is the event type of IndexPublishedEvent messages.
const EventIndexPublished = "index.published"

// IndexPublishedEvent is the payload on the index.published topic.
type IndexPublishedEvent struct {
	Version     string    `json:"version"`
	Path        string    `json:"path"`
	Source      string    `json:"source"`
	Crates      int       `json:"crates"`
	Items       int       `json:"items"`
	SizeBytes   int64     `json:"size_bytes"`
	PublishedAt time.Time `json:"published_at"`
}

// Version is one row of the published version history.
type Version struct {
	Version     string    `json:"version"`
	Source      string    `json:"source"`
	Path        string    `json:"path"`
	Crates      int       `json:"crates"`
	Items       int       `json:"items"`
	SizeBytes   int64     `json:"size_bytes"`
	PublishedAt time.Time `json:"published_at"`
}
