package social

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/registry"
	"github.com/potluckapp/potluck/status"
	"github.com/potluckapp/potluck/utils"
	"github.com/potluckapp/potluck/utils/dotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

func setupGraph(t *testing.T) (*gorm.DB, *GraphManager) {
	t.Helper()
	utils.SkipUnlessTestDB(t)
	db, _ := utils.CreateTempDB(t)
	reg := registry.NewRegistry(db)
	return db, NewGraphManager(db, reg)
}

func registerUser(t *testing.T, g *GraphManager, subject, handle string) *model.User {
	t.Helper()
	user, err := g.Registry.Register(context.Background(), subject, handle, "User "+handle)
	require.NoError(t, err)
	return user
}

// loadSides reads both denormalized views of the relation for a user.
func loadSides(t *testing.T, db *gorm.DB, userId string) (followers, following []string) {
	t.Helper()
	var user model.User
	res := db.Preload("Followers").Preload("Following").Where("id = ?", userId).First(&user)
	require.Equal(t, int64(1), res.RowsAffected)
	for _, u := range user.Followers {
		followers = append(followers, u.Handle)
	}
	for _, u := range user.Following {
		following = append(following, u.Handle)
	}
	return followers, following
}

func TestFollowSymmetry(t *testing.T) {
	db, g := setupGraph(t)
	ctx := context.Background()
	anna := registerUser(t, g, "sub-anna", "anna")
	ben := registerUser(t, g, "sub-ben", "ben")

	require.NoError(t, g.Follow(ctx, "sub-anna", "ben"))

	annaFollowers, annaFollowing := loadSides(t, db, anna.Id)
	benFollowers, benFollowing := loadSides(t, db, ben.Id)
	assert.Equal(t, []string{"ben"}, annaFollowing)
	assert.Equal(t, []string{"anna"}, benFollowers)
	assert.Empty(t, annaFollowers)
	assert.Empty(t, benFollowing)

	require.NoError(t, g.Unfollow(ctx, "sub-anna", "ben"))

	annaFollowers, annaFollowing = loadSides(t, db, anna.Id)
	benFollowers, benFollowing = loadSides(t, db, ben.Id)
	assert.Empty(t, annaFollowing)
	assert.Empty(t, benFollowers)
	assert.Empty(t, annaFollowers)
	assert.Empty(t, benFollowing)
}

func TestSelfFollow(t *testing.T) {
	db, g := setupGraph(t)
	ctx := context.Background()
	anna := registerUser(t, g, "sub-anna", "anna")

	err := g.Follow(ctx, "sub-anna", "anna")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindInvalidState))
	assert.Equal(t, status.ReasonSelfFollow, status.ReasonOf(err))

	followers, following := loadSides(t, db, anna.Id)
	assert.Empty(t, followers)
	assert.Empty(t, following)
}

func TestFollowIdempotentFailure(t *testing.T) {
	db, g := setupGraph(t)
	ctx := context.Background()
	registerUser(t, g, "sub-anna", "anna")
	registerUser(t, g, "sub-ben", "ben")

	require.NoError(t, g.Follow(ctx, "sub-anna", "ben"))

	err := g.Follow(ctx, "sub-anna", "ben")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindConflict))
	assert.Equal(t, status.ReasonAlreadyFollowing, status.ReasonOf(err))

	var count int64
	db.Model(&model.UserFollow{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUnfollowNotFollowing(t *testing.T) {
	_, g := setupGraph(t)
	ctx := context.Background()
	registerUser(t, g, "sub-anna", "anna")
	registerUser(t, g, "sub-ben", "ben")

	err := g.Unfollow(ctx, "sub-anna", "ben")
	require.Error(t, err)
	assert.True(t, status.Is(err, status.KindInvalidState))
	assert.Equal(t, status.ReasonNotFollowing, status.ReasonOf(err))
}

func TestUnfollowIsOneDirectional(t *testing.T) {
	db, g := setupGraph(t)
	ctx := context.Background()
	anna := registerUser(t, g, "sub-anna", "anna")
	ben := registerUser(t, g, "sub-ben", "ben")

	require.NoError(t, g.Follow(ctx, "sub-anna", "ben"))
	require.NoError(t, g.Follow(ctx, "sub-ben", "anna"))

	require.NoError(t, g.Unfollow(ctx, "sub-anna", "ben"))

	// the reverse edge survives
	_, annaFollowing := loadSides(t, db, anna.Id)
	benFollowers, benFollowing := loadSides(t, db, ben.Id)
	assert.Empty(t, annaFollowing)
	assert.Empty(t, benFollowers)
	assert.Equal(t, []string{"anna"}, benFollowing)
}

func TestFollowUnknownProfiles(t *testing.T) {
	_, g := setupGraph(t)
	ctx := context.Background()
	registerUser(t, g, "sub-anna", "anna")

	err := g.Follow(ctx, "sub-anna", "ghost")
	assert.True(t, status.Is(err, status.KindNotFound))

	err = g.Follow(ctx, "sub-ghost", "anna")
	assert.True(t, status.Is(err, status.KindNotFound))
}

// Concurrent follows of the same directed edge serialize on the join
// table's primary key: exactly one insert wins, every loser sees the
// conflict, and the edge is never half present.
func TestConcurrentFollowSameEdge(t *testing.T) {
	db, g := setupGraph(t)
	registerUser(t, g, "sub-anna", "anna")
	registerUser(t, g, "sub-ben", "ben")

	const racers = 4
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = g.Follow(context.Background(), "sub-anna", "ben")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case status.Is(err, status.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error kind: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)

	var count int64
	db.Model(&model.UserFollow{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListFollowersOrderedByHandle(t *testing.T) {
	_, g := setupGraph(t)
	ctx := context.Background()
	registerUser(t, g, "sub-star", "star")
	for i, handle := range []string{"zoe", "anna", "mia"} {
		registerUser(t, g, fmt.Sprintf("sub-%d", i), handle)
		require.NoError(t, g.Follow(ctx, fmt.Sprintf("sub-%d", i), "star"))
	}

	followers, err := g.ListFollowers(ctx, "star")
	require.NoError(t, err)
	require.Len(t, followers, 3)
	assert.Equal(t, "anna", followers[0].Handle)
	assert.Equal(t, "mia", followers[1].Handle)
	assert.Equal(t, "zoe", followers[2].Handle)
	assert.Equal(t, "User anna", followers[0].DisplayName)

	following, err := g.ListFollowing(ctx, "zoe")
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "star", following[0].Handle)

	_, err = g.ListFollowers(ctx, "ghost")
	assert.True(t, status.Is(err, status.KindNotFound))
}
