// Package registry maps external authenticated subjects to profiles and
// owns handle uniqueness. It is the leaf component of the core, everything
// else resolves profiles through it.
package registry

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/potluckapp/potluck/model"
	"github.com/potluckapp/potluck/status"
	"github.com/potluckapp/potluck/utils"
	Logger "github.com/potluckapp/potluck/utils/log"
	"gorm.io/gorm"
)

// Constraint names created by the migration, used to turn a racing
// duplicate insert into the right conflict error.
const (
	handleConstraint  = "idx_users_handle"
	subjectConstraint = "idx_users_subject_id"
)

type Registry struct {
	DB *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{DB: db}
}

// Register creates the profile for an authenticated subject. The handle is
// normalized before any check. The lookups below only produce friendly
// errors for the common case; the authority under concurrent registration
// is the pair of unique indexes, so a racing duplicate deterministically
// loses with a conflict instead of overwriting anything.
func (r *Registry) Register(ctx context.Context, subjectId string, requestedHandle string, displayName string) (*model.User, error) {
	handle := NormalizeHandle(requestedHandle)
	if handle == "" {
		return nil, status.Validation("handle must not be empty")
	}
	if displayName == "" {
		return nil, status.Validation("displayName must not be empty")
	}

	db := r.DB.WithContext(ctx)

	var existing model.User
	if res := db.Where("handle = ?", handle).First(&existing); res.RowsAffected != 0 {
		return nil, status.Conflict(status.ReasonHandleTaken, "handle %q is already taken", handle)
	}
	if res := db.Where("subject_id = ?", subjectId).First(&existing); res.RowsAffected != 0 {
		return nil, status.Conflict(status.ReasonAlreadyRegistered, "subject already has a profile")
	}

	user := model.User{
		Id:             uuid.New().String(),
		SubjectId:      subjectId,
		Handle:         handle,
		DisplayName:    displayName,
		ProfilePicture: model.DefaultProfilePicture,
	}
	if err := db.Create(&user).Error; err != nil {
		if utils.IsUniqueViolation(err, handleConstraint) {
			return nil, status.Conflict(status.ReasonHandleTaken, "handle %q is already taken", handle)
		}
		if utils.IsUniqueViolation(err, subjectConstraint) {
			return nil, status.Conflict(status.ReasonAlreadyRegistered, "subject already has a profile")
		}
		return nil, status.Unavailable(err)
	}

	Logger.Log.Info("registered profile with handle: ", handle)
	return &user, nil
}

// GetByHandle resolves a profile by its handle. The input goes through the
// same normalization as registration so lookups cannot miss on cosmetic
// differences.
func (r *Registry) GetByHandle(ctx context.Context, handle string) (*model.User, error) {
	var user model.User
	res := r.DB.WithContext(ctx).Where("handle = ?", NormalizeHandle(handle)).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, status.NotFound("no profile with handle %q", handle)
		}
		return nil, status.Unavailable(res.Error)
	}
	return &user, nil
}

// GetBySubject resolves a profile by the external subject identifier.
func (r *Registry) GetBySubject(ctx context.Context, subjectId string) (*model.User, error) {
	var user model.User
	res := r.DB.WithContext(ctx).Where("subject_id = ?", subjectId).First(&user)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return nil, status.NotFound("no profile for this subject")
		}
		return nil, status.Unavailable(res.Error)
	}
	return &user, nil
}

// ProfileUpdate carries the patch for UpdateProfile. Nil fields are left
// untouched; a non-nil empty Description clears the bio. DisplayName can
// never be cleared to empty.
type ProfileUpdate struct {
	DisplayName    *string
	Description    *string
	ProfilePicture *string
}

func (r *Registry) UpdateProfile(ctx context.Context, subjectId string, update ProfileUpdate) (*model.User, error) {
	user, err := r.GetBySubject(ctx, subjectId)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.DisplayName != nil {
		if *update.DisplayName == "" {
			return nil, status.Validation("displayName must not be empty")
		}
		fields["display_name"] = *update.DisplayName
	}
	if update.Description != nil {
		if len([]rune(*update.Description)) > model.MaxDescriptionLength {
			return nil, status.Validation("description must be at most %d characters", model.MaxDescriptionLength)
		}
		fields["description"] = *update.Description
	}
	if update.ProfilePicture != nil {
		picture := *update.ProfilePicture
		if picture == "" {
			picture = model.DefaultProfilePicture
		}
		fields["profile_picture"] = picture
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := r.DB.WithContext(ctx).Model(user).Updates(fields).Error; err != nil {
		return nil, status.Unavailable(err)
	}
	return user, nil
}
