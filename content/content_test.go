package content

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/registry"
	"github.com/potluckapp/potluck/status"
	"github.com/potluckapp/potluck/utils"
	"github.com/potluckapp/potluck/utils/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func setupContent(t *testing.T) (*gorm.DB, *Manager) {
	t.Helper()
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	reg := registry.NewRegistry(db)
	return db, NewManager(db, reg)
}

func registerUser(t *testing.T, m *Manager, subject, handle string) *model.User {
	t.Helper()
	user, err := m.Registry.Register(context.Background(), subject, handle, "User "+handle)
	require.NoError(t, err)
	return user
}

func TestCreatePostWithRecipe(t *testing.T) {
	db, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	media := []model.MediaItem{
		{Url: "https://cdn.example.com/stew2.jpg", Kind: model.MediaKindImage, DisplayOrder: 5},
		{Url: "https://cdn.example.com/stew1.mp4", Kind: model.MediaKindVideo, DisplayOrder: 2},
	}
	chunks := []model.ContentChunk{
		{Kind: model.ChunkKindInstructions, DisplayOrder: 2, Instructions: &model.InstructionsContent{Instructions: "simmer for an hour"}},
		{Kind: model.ChunkKindMedia, DisplayOrder: 0, Media: &model.MediaContent{Url: "https://cdn.example.com/pot.jpg"}},
		{Kind: model.ChunkKindIngredients, DisplayOrder: 1, Ingredients: &model.IngredientsContent{ServingSize: 4, Ingredients: []string{"2 carrots", "1 onion"}}},
	}

	post, err := m.CreatePost(ctx, "sub-anna", "Sunday stew", media, chunks)
	require.NoError(t, err)
	assert.Equal(t, "anna", post.PosterHandle)
	assert.Equal(t, "Sunday stew", post.Text)

	// media sequence persisted sorted with dense order values
	var storedMedia []model.MediaItem
	require.NoError(t, json.Unmarshal(post.Media, &storedMedia))
	require.Len(t, storedMedia, 2)
	assert.Equal(t, model.MediaKindVideo, storedMedia[0].Kind)
	assert.Equal(t, 0, storedMedia[0].DisplayOrder)
	assert.Equal(t, model.MediaKindImage, storedMedia[1].Kind)
	assert.Equal(t, 1, storedMedia[1].DisplayOrder)

	// recipe sequence persisted sorted with dense order values
	var storedChunks []model.ContentChunk
	require.NoError(t, json.Unmarshal(post.Recipe, &storedChunks))
	require.Len(t, storedChunks, 3)
	assert.Equal(t, model.ChunkKindMedia, storedChunks[0].Kind)
	assert.Equal(t, model.ChunkKindIngredients, storedChunks[1].Kind)
	assert.Equal(t, model.ChunkKindInstructions, storedChunks[2].Kind)
	for i, c := range storedChunks {
		assert.Equal(t, i, c.DisplayOrder)
	}

	var reloaded model.Post
	require.Equal(t, int64(1), db.Where("id = ?", post.Id).First(&reloaded).RowsAffected)
}

func TestCreatePostWithoutRecipe(t *testing.T) {
	_, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	post, err := m.CreatePost(ctx, "sub-anna", "no recipe today", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, []byte(post.Recipe))
}

func TestCreatePostValidation(t *testing.T) {
	db, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	// oversized text
	long := make([]byte, 0, model.MaxPostTextLength+1)
	for i := 0; i < model.MaxPostTextLength+1; i++ {
		long = append(long, 'x')
	}
	_, err := m.CreatePost(ctx, "sub-anna", string(long), nil, nil)
	assert.True(t, status.Is(err, status.KindValidation))

	// empty text
	_, err = m.CreatePost(ctx, "sub-anna", "", nil, nil)
	assert.True(t, status.Is(err, status.KindValidation))

	// bad media kind
	_, err = m.CreatePost(ctx, "sub-anna", "hi", []model.MediaItem{{Url: "https://x", Kind: "gif"}}, nil)
	assert.True(t, status.Is(err, status.KindValidation))

	// recipe validation failures propagate unchanged and nothing is written
	_, err = m.CreatePost(ctx, "sub-anna", "hi", nil, []model.ContentChunk{
		{Kind: model.ChunkKindIngredients, DisplayOrder: 0, Ingredients: &model.IngredientsContent{ServingSize: 0, Ingredients: []string{"salt"}}},
	})
	assert.True(t, status.Is(err, status.KindValidation))

	// unknown poster
	_, err = m.CreatePost(ctx, "sub-ghost", "hi", nil, nil)
	assert.True(t, status.Is(err, status.KindNotFound))

	var count int64
	db.Model(&model.Post{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

// threadShape projects a materialized thread down to the bits the tree
// invariants are about, so go-cmp diffs stay readable.
type threadShape struct {
	Text    string
	Replies []threadShape
}

func shapeOf(nodes []*ThreadNode) []threadShape {
	shapes := []threadShape{}
	for _, n := range nodes {
		shapes = append(shapes, threadShape{Text: n.Text, Replies: shapeOf(n.Replies)})
	}
	return shapes
}

func TestReplyTreeIntegrity(t *testing.T) {
	db, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")
	registerUser(t, m, "sub-ben", "ben")

	post, err := m.CreatePost(ctx, "sub-anna", "Sunday stew", nil, nil)
	require.NoError(t, err)

	top1, err := m.AddReply(ctx, "sub-ben", post.Id, nil, "looks great")
	require.NoError(t, err)
	top2, err := m.AddReply(ctx, "sub-anna", post.Id, nil, "thanks all")
	require.NoError(t, err)
	nested, err := m.AddReply(ctx, "sub-anna", post.Id, &top1.Id, "thank you ben")
	require.NoError(t, err)
	deep, err := m.AddReply(ctx, "sub-ben", post.Id, &nested.Id, "what cut of beef?")
	require.NoError(t, err)

	// every reply points at the root post regardless of depth
	for _, r := range []*model.Reply{top1, top2, nested, deep} {
		assert.Equal(t, post.Id, r.PostID)
	}

	thread, err := m.GetThread(ctx, post.Id)
	require.NoError(t, err)
	assert.Equal(t, post.Id, thread.Post.Id)

	want := []threadShape{
		{Text: "looks great", Replies: []threadShape{
			{Text: "thank you ben", Replies: []threadShape{
				{Text: "what cut of beef?", Replies: []threadShape{}},
			}},
		}},
		{Text: "thanks all", Replies: []threadShape{}},
	}
	if diff := cmp.Diff(want, shapeOf(thread.Replies)); diff != "" {
		t.Errorf("thread tree mismatch (-want +got):\n%s", diff)
	}

	// replies of an unrelated post never leak into this thread
	other, err := m.CreatePost(ctx, "sub-ben", "my bread", nil, nil)
	require.NoError(t, err)
	_, err = m.AddReply(ctx, "sub-anna", other.Id, nil, "nice crumb")
	require.NoError(t, err)

	thread, err = m.GetThread(ctx, post.Id)
	require.NoError(t, err)
	var total int
	stack := append([]*ThreadNode{}, thread.Replies...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		total++
		stack = append(stack, n.Replies...)
	}
	assert.Equal(t, 4, total)

	var replyCount int64
	db.Model(&model.Reply{}).Where("post_id = ?", post.Id).Count(&replyCount)
	assert.Equal(t, int64(4), replyCount)
}

// Sibling order comes from the store-assigned insertion sequence, so
// replies created within the same timestamp tick still come back oldest
// first.
func TestThreadOrderSurvivesTimestampTies(t *testing.T) {
	db, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	post, err := m.CreatePost(ctx, "sub-anna", "tied", nil, nil)
	require.NoError(t, err)

	texts := []string{"first", "second", "third", "fourth"}
	for _, text := range texts {
		_, err := m.AddReply(ctx, "sub-anna", post.Id, nil, text)
		require.NoError(t, err)
	}

	// collapse every creation timestamp to the same instant
	tied := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res := db.Model(&model.Reply{}).Where("post_id = ?", post.Id).Update("created_at", tied)
	require.NoError(t, res.Error)
	require.Equal(t, int64(len(texts)), res.RowsAffected)

	thread, err := m.GetThread(ctx, post.Id)
	require.NoError(t, err)
	require.Len(t, thread.Replies, len(texts))
	for i, text := range texts {
		assert.Equal(t, text, thread.Replies[i].Text)
	}
}

func TestAddReplyCrossPostParentRejected(t *testing.T) {
	_, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	postA, err := m.CreatePost(ctx, "sub-anna", "post A", nil, nil)
	require.NoError(t, err)
	postB, err := m.CreatePost(ctx, "sub-anna", "post B", nil, nil)
	require.NoError(t, err)

	replyOnB, err := m.AddReply(ctx, "sub-anna", postB.Id, nil, "on B")
	require.NoError(t, err)

	_, err = m.AddReply(ctx, "sub-anna", postA.Id, &replyOnB.Id, "cross-post")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindInvalidState))
	assert.Equal(t, status.ReasonInvalidParent, status.ReasonOf(err))
}

func TestAddReplyMissingTargets(t *testing.T) {
	_, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	post, err := m.CreatePost(ctx, "sub-anna", "hello", nil, nil)
	require.NoError(t, err)

	_, err = m.AddReply(ctx, "sub-anna", "no-such-post", nil, "hi")
	assert.True(t, status.Is(err, status.KindNotFound))

	ghost := "no-such-reply"
	_, err = m.AddReply(ctx, "sub-anna", post.Id, &ghost, "hi")
	assert.True(t, status.Is(err, status.KindNotFound))
}

// A pathologically deep chain materializes without recursion, so thread
// depth is bounded by storage, not by the call stack.
func TestDeepThreadMaterialization(t *testing.T) {
	_, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	post, err := m.CreatePost(ctx, "sub-anna", "deep thread", nil, nil)
	require.NoError(t, err)

	const depth = 1500
	var parent *string
	for i := 0; i < depth; i++ {
		reply, err := m.AddReply(ctx, "sub-anna", post.Id, parent, fmt.Sprintf("level %d", i))
		require.NoError(t, err)
		assert.Equal(t, post.Id, reply.PostID)
		parent = &reply.Id
	}

	thread, err := m.GetThread(ctx, post.Id)
	require.NoError(t, err)

	var walked int
	nodes := thread.Replies
	for len(nodes) > 0 {
		require.Len(t, nodes, 1)
		assert.Equal(t, fmt.Sprintf("level %d", walked), nodes[0].Text)
		walked++
		nodes = nodes[0].Replies
	}
	assert.Equal(t, depth, walked)
}

// When storage is down, reads and edits of existing records must report
// Unavailable, not NotFound.
func TestContentOnStorageOutage(t *testing.T) {
	db, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	post, err := m.CreatePost(ctx, "sub-anna", "hello", nil, nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = m.GetPost(ctx, post.Id)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindUnavailable))
	assert.False(t, status.Is(err, status.KindNotFound))

	_, err = m.GetThread(ctx, post.Id)
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindUnavailable))
}

func TestGetThreadMissingPost(t *testing.T) {
	_, m := setupContent(t)
	_, err := m.GetThread(context.Background(), "no-such-post")
	assert.True(t, status.Is(err, status.KindNotFound))
}

func TestEditPostAuthorization(t *testing.T) {
	db, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")
	registerUser(t, m, "sub-ben", "ben")

	post, err := m.CreatePost(ctx, "sub-anna", "original", nil, nil)
	require.NoError(t, err)

	var before model.Post
	require.Equal(t, int64(1), db.Where("id = ?", post.Id).First(&before).RowsAffected)

	_, err = m.EditPost(ctx, "sub-ben", post.Id, "hijacked")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindForbidden))

	// text and dateUpdated both unchanged after the forbidden attempt
	var after model.Post
	require.Equal(t, int64(1), db.Where("id = ?", post.Id).First(&after).RowsAffected)
	assert.Equal(t, "original", after.Text)
	assert.True(t, after.UpdatedAt.Equal(before.UpdatedAt))

	// the author can edit, and the edit bumps dateUpdated
	edited, err := m.EditPost(ctx, "sub-anna", post.Id, "fixed typo")
	require.NoError(t, err)
	assert.Equal(t, "fixed typo", edited.Text)
	assert.True(t, edited.UpdatedAt.After(before.UpdatedAt))

	_, err = m.EditPost(ctx, "sub-anna", "no-such-post", "hm")
	assert.True(t, status.Is(err, status.KindNotFound))
}

func TestEditReplyAuthorization(t *testing.T) {
	_, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")
	registerUser(t, m, "sub-ben", "ben")

	post, err := m.CreatePost(ctx, "sub-anna", "post", nil, nil)
	require.NoError(t, err)
	reply, err := m.AddReply(ctx, "sub-ben", post.Id, nil, "original reply")
	require.NoError(t, err)

	_, err = m.EditReply(ctx, "sub-anna", reply.Id, "hijacked")
	assert.True(t, status.Is(err, status.KindForbidden))

	edited, err := m.EditReply(ctx, "sub-ben", reply.Id, "edited reply")
	require.NoError(t, err)
	assert.Equal(t, "edited reply", edited.Text)
}

func TestRecipeSurvivesThreadView(t *testing.T) {
	_, m := setupContent(t)
	ctx := context.Background()
	registerUser(t, m, "sub-anna", "anna")

	chunks := []model.ContentChunk{
		{Kind: model.ChunkKindNutrition, DisplayOrder: 1, Nutrition: datatypes.JSONMap{"calories": 420}},
		{Kind: model.ChunkKindInstructions, DisplayOrder: 0, Instructions: &model.InstructionsContent{Instructions: "stir"}},
	}
	post, err := m.CreatePost(ctx, "sub-anna", "with recipe", nil, chunks)
	require.NoError(t, err)

	thread, err := m.GetThread(ctx, post.Id)
	require.NoError(t, err)

	var stored []model.ContentChunk
	require.NoError(t, json.Unmarshal(thread.Post.Recipe, &stored))
	require.Len(t, stored, 2)
	assert.Equal(t, model.ChunkKindInstructions, stored[0].Kind)
	assert.Equal(t, model.ChunkKindNutrition, stored[1].Kind)
}
