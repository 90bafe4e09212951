// Package content owns posts and their reply trees. Attribution is by
// handle snapshot taken at creation time, recipes are validated through
// the recipe package and stored as part of the post record.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/recipe"
	"github.com/potluckapp/potluck/registry"
	"github.com/potluckapp/potluck/status"
	"github.com/potluckapp/potluck/utils"
	Logger "github.com/potluckapp/potluck/utils/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Manager struct {
	DB       *gorm.DB
	Registry *registry.Registry
}

func NewManager(db *gorm.DB, reg *registry.Registry) *Manager {
	return &Manager{DB: db, Registry: reg}
}

func validateText(text string) error {
	if text == "" {
		return status.Validation("text must not be empty")
	}
	if utf8.RuneCountInString(text) > model.MaxPostTextLength {
		return status.Validation("text must be at most %d characters", model.MaxPostTextLength)
	}
	return nil
}

var validMediaKinds = []string{string(model.MediaKindImage), string(model.MediaKindVideo)}

// orderMedia validates the media carousel and returns it sorted by
// displayOrder, rewritten to the dense index, same rule as recipe chunks.
func orderMedia(media []model.MediaItem) ([]model.MediaItem, error) {
	seen := make(map[int]bool, len(media))
	for _, m := range media {
		if m.Url == "" {
			return nil, status.Validation("media item must have a url")
		}
		if !utils.ContainsString(validMediaKinds, string(m.Kind)) {
			return nil, status.Validation("unknown media kind %q", m.Kind)
		}
		if seen[m.DisplayOrder] {
			return nil, status.Validation("duplicate media displayOrder %d", m.DisplayOrder)
		}
		seen[m.DisplayOrder] = true
	}

	ordered := make([]model.MediaItem, len(media))
	copy(ordered, media)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DisplayOrder < ordered[j].DisplayOrder
	})
	for i := range ordered {
		ordered[i].DisplayOrder = i
	}
	return ordered, nil
}

// CreatePost publishes a post attributed to the caller's current handle.
// When recipeChunks are supplied they are validated and ordered first and
// any validation failure is returned unchanged, nothing is written in that
// case.
func (m *Manager) CreatePost(ctx context.Context, posterSubjectId string, text string, media []model.MediaItem, recipeChunks []model.ContentChunk) (*model.Post, error) {
	poster, err := m.Registry.GetBySubject(ctx, posterSubjectId)
	if err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	orderedMedia, err := orderMedia(media)
	if err != nil {
		return nil, err
	}
	mediaJSON, err := json.Marshal(orderedMedia)
	if err != nil {
		return nil, status.Unavailable(err)
	}

	var recipeJSON datatypes.JSON
	if len(recipeChunks) > 0 {
		orderedChunks, err := recipe.ValidateAndOrder(recipeChunks)
		if err != nil {
			return nil, err
		}
		recipeJSON, err = json.Marshal(orderedChunks)
		if err != nil {
			return nil, status.Unavailable(err)
		}
	}

	post := model.Post{
		Id:           uuid.New().String(),
		PosterHandle: poster.Handle,
		Text:         text,
		Media:        mediaJSON,
		Recipe:       recipeJSON,
	}
	if err := m.DB.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, status.Unavailable(err)
	}

	Logger.Log.Info("post created by ", poster.Handle, ": ", post.Id)
	return &post, nil
}

// GetPost resolves a single post record without its reply tree.
func (m *Manager) GetPost(ctx context.Context, postId string) (*model.Post, error) {
	var post model.Post
	res := m.DB.WithContext(ctx).Where("id = ?", postId).First(&post)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, status.NotFound("no post with id %q", postId)
		}
		return nil, status.Unavailable(res.Error)
	}
	return &post, nil
}

// EditPost replaces the post text. Only the original poster may edit, and
// the authorization check and the update run in one transaction so a
// forbidden caller leaves the record byte-for-byte untouched.
func (m *Manager) EditPost(ctx context.Context, authorSubjectId string, postId string, text string) (*model.Post, error) {
	author, err := m.Registry.GetBySubject(ctx, authorSubjectId)
	if err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	var post model.Post
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", postId).First(&post)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return status.NotFound("no post with id %q", postId)
			}
			return res.Error
		}
		if post.PosterHandle != author.Handle {
			return status.Forbidden("only %q may edit this post", post.PosterHandle)
		}
		return tx.Model(&post).Update("text", text).Error
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &post, nil
}

// EditReply replaces a reply's text under the same authorization rule as
// EditPost.
func (m *Manager) EditReply(ctx context.Context, authorSubjectId string, replyId string, text string) (*model.Reply, error) {
	author, err := m.Registry.GetBySubject(ctx, authorSubjectId)
	if err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	var reply model.Reply
	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", replyId).First(&reply)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return status.NotFound("no reply with id %q", replyId)
			}
			return res.Error
		}
		if reply.ReplierHandle != author.Handle {
			return status.Forbidden("only %q may edit this reply", reply.ReplierHandle)
		}
		return tx.Model(&reply).Update("text", text).Error
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &reply, nil
}

// wrapStorage passes typed core failures through unchanged and converts
// anything else (driver errors, rollback errors) to Unavailable so no raw
// storage error escapes an operation boundary.
func wrapStorage(err error) error {
	var typed *status.Error
	if errors.As(err, &typed) {
		return err
	}
	return status.Unavailable(err)
}
