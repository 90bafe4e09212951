package content

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/status"
	"gorm.io/gorm"
)

// AddReply attaches a reply under a post or under another reply of the
// same post. The stored PostID is always the root post's id regardless of
// nesting depth, so any reply joins its thread in one indexed lookup. The
// existence checks and the insert run in one transaction.
func (m *Manager) AddReply(ctx context.Context, authorSubjectId string, postId string, parentReplyId *string, text string) (*model.Reply, error) {
	author, err := m.Registry.GetBySubject(ctx, authorSubjectId)
	if err != nil {
		return nil, err
	}
	if err := validateText(text); err != nil {
		return nil, err
	}

	reply := model.Reply{
		Id:            uuid.New().String(),
		PostID:        postId,
		ParentReplyID: parentReplyId,
		ReplierHandle: author.Handle,
		Text:          text,
	}

	err = m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post model.Post
		if res := tx.Where("id = ?", postId).First(&post); res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return status.NotFound("no post with id %q", postId)
			}
			return res.Error
		}

		if parentReplyId != nil {
			var parent model.Reply
			if res := tx.Where("id = ?", *parentReplyId).First(&parent); res.Error != nil {
				if errors.Is(res.Error, gorm.ErrRecordNotFound) {
					return status.NotFound("no reply with id %q", *parentReplyId)
				}
				return res.Error
			}
			// Every reply stores the root post id, so one comparison
			// rejects cross-post parenting at any nesting depth.
			if parent.PostID != postId {
				return status.InvalidState(status.ReasonInvalidParent, "parent reply belongs to a different post")
			}
		}

		return tx.Create(&reply).Error
	})
	if err != nil {
		return nil, wrapStorage(err)
	}
	return &reply, nil
}

// ThreadNode is one reply of a materialized thread with its direct
// children in insertion order.
type ThreadNode struct {
	model.Reply
	Replies []*ThreadNode `json:"replies"`
}

// Thread is a post with its fully materialized reply tree.
type Thread struct {
	Post    model.Post    `json:"post"`
	Replies []*ThreadNode `json:"replies"`
}

// GetThread loads the post and every reply whose root pointer matches it,
// then assembles the tree from the flat arena with an id -> node map. One
// pass creates the nodes, one pass links children to parents, both in
// insertion order, so the materialization cost is linear and independent
// of nesting depth. No recursion is involved, a pathological ten-thousand
// deep chain builds in the same two passes as a flat thread.
func (m *Manager) GetThread(ctx context.Context, postId string) (*Thread, error) {
	post, err := m.GetPost(ctx, postId)
	if err != nil {
		return nil, err
	}

	var replies []model.Reply
	res := m.DB.WithContext(ctx).
		Where("post_id = ?", postId).
		Order("seq asc").
		Find(&replies)
	if res.Error != nil {
		return nil, status.Unavailable(res.Error)
	}

	nodes := make(map[string]*ThreadNode, len(replies))
	for i := range replies {
		nodes[replies[i].Id] = &ThreadNode{Reply: replies[i], Replies: []*ThreadNode{}}
	}

	thread := Thread{Post: *post, Replies: []*ThreadNode{}}
	for i := range replies {
		node := nodes[replies[i].Id]
		if replies[i].ParentReplyID == nil {
			thread.Replies = append(thread.Replies, node)
			continue
		}
		parent, ok := nodes[*replies[i].ParentReplyID]
		if !ok {
			// A parent outside the thread would mean the tree invariant is
			// already broken in the store; surface it instead of silently
			// dropping the subtree.
			return nil, status.Unavailable(errors.Errorf("reply %q has a parent outside its thread", replies[i].Id))
		}
		parent.Replies = append(parent.Replies, node)
	}

	return &thread, nil
}
