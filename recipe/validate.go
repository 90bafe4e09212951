// Package recipe validates and orders the heterogeneous content chunks of
// a recipe. Everything here is pure: no storage access, safe to call for
// draft previews before a post is committed.
package recipe

import (
	"sort"

	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/status"
)

// ValidateAndOrder checks every chunk against its declared kind and
// returns a new sequence sorted ascending by displayOrder. Client-supplied
// order values only need to be unique; the returned sequence carries the
// dense index 0..n-1 instead, so persisted recipes never drift with
// whatever gaps clients send. Running the result through validation again
// yields the same sequence.
func ValidateAndOrder(chunks []model.ContentChunk) ([]model.ContentChunk, error) {
	if len(chunks) == 0 {
		return nil, status.Validation("recipe must contain at least one content chunk")
	}

	seen := make(map[int]bool, len(chunks))
	for i := range chunks {
		if seen[chunks[i].DisplayOrder] {
			return nil, status.Validation("duplicate displayOrder %d", chunks[i].DisplayOrder)
		}
		seen[chunks[i].DisplayOrder] = true
		if err := validateChunk(chunks[i]); err != nil {
			return nil, err
		}
	}

	ordered := make([]model.ContentChunk, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})
	for i := range ordered {
		ordered[i].DisplayOrder = i
	}
	return ordered, nil
}

// validateChunk enforces that the payload matches the declared kind, that
// no other variant payload is smuggled alongside it, and that the chunk is
// not empty.
func validateChunk(c model.ContentChunk) error {
	if err := validatePayloadShape(c); err != nil {
		return err
	}

	switch c.Kind {
	case model.ChunkKindMedia:
		if c.Media.Url == "" {
			return status.Validation("media chunk must have a url")
		}
	case model.ChunkKindIngredients:
		if c.Ingredients.ServingSize <= 0 {
			return status.Validation("ingredients chunk must have a positive servingSize")
		}
		if len(c.Ingredients.Ingredients) == 0 {
			return status.Validation("ingredients chunk must list at least one ingredient")
		}
		for _, ingredient := range c.Ingredients.Ingredients {
			if ingredient == "" {
				return status.Validation("ingredients chunk must not contain empty entries")
			}
		}
	case model.ChunkKindInstructions:
		if c.Instructions.Instructions == "" {
			return status.Validation("instructions chunk must not be empty")
		}
	case model.ChunkKindNutrition:
		// The nutrition schema is deliberately open, it is only required
		// to carry something.
		if len(c.Nutrition) == 0 {
			return status.Validation("nutrition chunk must not be empty")
		}
	default:
		return status.Validation("unknown chunk kind %q", c.Kind)
	}
	return nil
}

// validatePayloadShape rejects chunks whose payload does not match the
// declared kind, in either direction: the matching payload missing, or a
// foreign payload present.
func validatePayloadShape(c model.ContentChunk) error {
	var got int
	for _, present := range []bool{
		c.Media != nil,
		c.Ingredients != nil,
		c.Instructions != nil,
		c.Nutrition != nil,
	} {
		if present {
			got++
		}
	}

	var matches bool
	switch c.Kind {
	case model.ChunkKindMedia:
		matches = c.Media != nil
	case model.ChunkKindIngredients:
		matches = c.Ingredients != nil
	case model.ChunkKindInstructions:
		matches = c.Instructions != nil
	case model.ChunkKindNutrition:
		matches = c.Nutrition != nil
	default:
		return status.Validation("unknown chunk kind %q", c.Kind)
	}

	if !matches || got != 1 {
		return status.Validation("chunk payload does not match declared kind %q", c.Kind)
	}
	return nil
}
