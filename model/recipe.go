package model

import "gorm.io/datatypes"

// ChunkKind tags a recipe content chunk with its payload variant.
type ChunkKind string

const (
	ChunkKindMedia        ChunkKind = "media"
	ChunkKindIngredients  ChunkKind = "ingredients"
	ChunkKindInstructions ChunkKind = "instructions"
	ChunkKindNutrition    ChunkKind = "nutrition"
)

/*

ContentChunk is one typed, ordered unit of a recipe's structured content

Kind: which payload variant this chunk carries
DisplayOrder: rendering position within the recipe. Client-supplied values
		only need to be unique; validation rewrites them to the dense index
		0..n-1 so persisted recipes never accumulate gaps.

Exactly one of the payload fields below must be set, and it must match
Kind. The nutrition payload is an open key/value mapping gathered from a
user-filled form; its schema is deliberately not fixed, so it is stored
opaque and only checked for being non-empty.

*/

type ContentChunk struct {
	Kind         ChunkKind            `json:"kind"`
	DisplayOrder int                  `json:"displayOrder"`
	Media        *MediaContent        `json:"media,omitempty"`
	Ingredients  *IngredientsContent  `json:"ingredients,omitempty"`
	Instructions *InstructionsContent `json:"instructions,omitempty"`
	Nutrition    datatypes.JSONMap    `json:"nutrition,omitempty"`
}

// MediaContent is the payload of a media chunk. Media is referenced by
// opaque URL only, storage and transcoding happen elsewhere.
type MediaContent struct {
	Url string `json:"url"`
}

// IngredientsContent is the payload of an ingredients chunk.
type IngredientsContent struct {
	ServingSize int      `json:"servingSize"`
	Ingredients []string `json:"ingredients"`
}

// InstructionsContent is the payload of an instructions chunk. Plain text,
// formatting is a frontend concern.
type InstructionsContent struct {
	Instructions string `json:"instructions"`
}
