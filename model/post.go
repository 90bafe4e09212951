package model

import (
	"time"

	"gorm.io/datatypes"
)

// MediaKind is the attachment type of a post media item.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// MaxPostTextLength bounds post and reply text alike.
const MaxPostTextLength = 2000

// MediaItem is one entry of a post's ordered media carousel.
type MediaItem struct {
	Url          string    `json:"url"`
	Kind         MediaKind `json:"kind"`
	DisplayOrder int       `json:"displayOrder"`
}

/*

Post is a piece of user-published content, optionally carrying a recipe

Id: primary key
PosterHandle: handle of the posting profile, snapshotted at creation time.
		Attribution is by handle value, not by a live profile reference.
Text: post body, required, at most MaxPostTextLength characters
Media: ordered media carousel, serialized []MediaItem
Recipe: optional ordered []ContentChunk sequence, null when the post
		carries no recipe. The post owns its recipe, they live and die
		together as one record.

CreatedAt: immutable creation time
UpdatedAt: bumped on any mutation

Top-level replies are not stored on the post, they are the indexed view
of replies with this post id and a null parent (see Reply).

*/

type Post struct {
	Id           string         `gorm:"primaryKey" json:"id"`
	PosterHandle string         `gorm:"index" json:"posterHandle"`
	Text         string         `json:"text"`
	Media        datatypes.JSON `json:"media"`
	Recipe       datatypes.JSON `json:"recipe,omitempty"`
	CreatedAt    time.Time      `json:"dateCreated"`
	UpdatedAt    time.Time      `json:"dateUpdated"`
}
