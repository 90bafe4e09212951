package model

import "time"

/*

Reply is one node of a post's reply tree

Id: primary key
PostID: id of the root post, always set, even for deeply nested replies.
		This denormalized root pointer attaches any reply to its thread in
		one indexed lookup instead of walking ancestors.
ParentReplyID: id of the parent reply, null when the reply sits directly
		under the post. The parent must belong to the same PostID, which
		keeps the reply graph under a post a tree.
ReplierHandle: handle of the replying profile, snapshotted at creation
Text: reply body, required, at most MaxPostTextLength characters
Seq: store-assigned monotonic insertion sequence. Thread views order
		siblings by it; timestamps alone cannot break ties between replies
		created in the same instant.

CreatedAt: immutable creation time
UpdatedAt: bumped on any mutation

Child sets are the indexed view of replies pointing at this reply as
parent, stored nowhere else.

*/

type Reply struct {
	Id            string    `gorm:"primaryKey" json:"id"`
	PostID        string    `gorm:"index" json:"postId"`
	ParentReplyID *string   `gorm:"index" json:"parentReplyId"`
	ReplierHandle string    `gorm:"index" json:"replierHandle"`
	Text          string    `json:"text"`
	Seq           int64     `gorm:"autoIncrement" json:"-"`
	CreatedAt     time.Time `json:"dateCreated"`
	UpdatedAt     time.Time `json:"dateUpdated"`
}
