// Package social maintains the directed follow relation between profiles.
// The relation is stored once, in the user_follows join table, and both
// per-profile views (followers, following) are indexed projections of it,
// so a single row insert or delete moves both sides of the edge as one
// atomic unit.
package social

import (
	"context"

	"github.com/jinzhu/copier"
	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/registry"
	"github.com/potluckapp/potluck/status"
	"github.com/potluckapp/potluck/utils"
	Logger "github.com/potluckapp/potluck/utils/log"
	"gorm.io/gorm"
)

// Composite primary key constraint of user_follows, the arbiter for
// concurrent duplicate follows of the same edge.
const followEdgeConstraint = "user_follows_pkey"

type GraphManager struct {
	DB       *gorm.DB
	Registry *registry.Registry
}

func NewGraphManager(db *gorm.DB, reg *registry.Registry) *GraphManager {
	return &GraphManager{DB: db, Registry: reg}
}

// Follow adds the directed edge actor -> target. The edge insert is a
// single row, so there is no observable state where one side of the
// relation is updated and the other is not. A concurrent duplicate follow
// of the same edge loses on the primary key and gets the conflict error.
func (g *GraphManager) Follow(ctx context.Context, actorSubjectId string, targetHandle string) error {
	actor, err := g.Registry.GetBySubject(ctx, actorSubjectId)
	if err != nil {
		return err
	}
	target, err := g.Registry.GetByHandle(ctx, targetHandle)
	if err != nil {
		return err
	}
	if actor.Id == target.Id {
		return status.InvalidState(status.ReasonSelfFollow, "cannot follow yourself")
	}

	edge := model.UserFollow{FollowerID: actor.Id, FolloweeID: target.Id}
	if err := g.DB.WithContext(ctx).Create(&edge).Error; err != nil {
		if utils.IsUniqueViolation(err, followEdgeConstraint) {
			return status.Conflict(status.ReasonAlreadyFollowing, "already following %q", target.Handle)
		}
		return status.Unavailable(err)
	}

	Logger.Log.Info("follow edge created: ", actor.Handle, " -> ", target.Handle)
	return nil
}

// Unfollow removes the directed edge actor -> target. Removal is
// one-directional only, the reverse edge (if any) is untouched. The delete
// of the single edge row is the atomic unit; RowsAffected tells us whether
// the edge existed, so concurrent unfollows of the same edge serialize
// with exactly one winner.
func (g *GraphManager) Unfollow(ctx context.Context, actorSubjectId string, targetHandle string) error {
	actor, err := g.Registry.GetBySubject(ctx, actorSubjectId)
	if err != nil {
		return err
	}
	target, err := g.Registry.GetByHandle(ctx, targetHandle)
	if err != nil {
		return err
	}

	res := g.DB.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", actor.Id, target.Id).
		Delete(&model.UserFollow{})
	if res.Error != nil {
		return status.Unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return status.InvalidState(status.ReasonNotFollowing, "not following %q", target.Handle)
	}
	return nil
}

// ListFollowers returns the profiles following the given handle, ordered
// by handle, projected down to the summary fields.
func (g *GraphManager) ListFollowers(ctx context.Context, handle string) ([]model.ProfileSummary, error) {
	user, err := g.Registry.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	var users []model.User
	res := g.DB.WithContext(ctx).Model(&model.User{}).
		Joins("INNER JOIN user_follows ON user_follows.follower_id = users.id").
		Where("user_follows.followee_id = ?", user.Id).
		Order("users.handle asc").
		Find(&users)
	if res.Error != nil {
		return nil, status.Unavailable(res.Error)
	}
	return toSummaries(users)
}

// ListFollowing returns the profiles the given handle follows, ordered by
// handle, projected down to the summary fields.
func (g *GraphManager) ListFollowing(ctx context.Context, handle string) ([]model.ProfileSummary, error) {
	user, err := g.Registry.GetByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	var users []model.User
	res := g.DB.WithContext(ctx).Model(&model.User{}).
		Joins("INNER JOIN user_follows ON user_follows.followee_id = users.id").
		Where("user_follows.follower_id = ?", user.Id).
		Order("users.handle asc").
		Find(&users)
	if res.Error != nil {
		return nil, status.Unavailable(res.Error)
	}
	return toSummaries(users)
}

func toSummaries(users []model.User) ([]model.ProfileSummary, error) {
	summaries := []model.ProfileSummary{}
	if err := copier.Copy(&summaries, &users); err != nil {
		return nil, status.Unavailable(err)
	}
	return summaries, nil
}
