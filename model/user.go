package model

import "time"

/*

User is a registered profile on the platform

Id: primary key
SubjectId: the authenticated subject identifier issued by the external
		identity provider. Exactly one profile per subject, immutable after
		registration. Never serialized back to clients.
Handle: normalized (trimmed, lower-cased, zero-width marks stripped) unique
		human-readable identifier, immutable after registration. Posts and
		replies reference the profile by a snapshot of this value, not by a
		live id reference.
DisplayName: free-form display name, required
Description: profile bio, at most MaxDescriptionLength characters
ProfilePicture: avatar URL, defaults to DefaultProfilePicture

Followers: profiles following this one, "many-to-many" relation
Following: profiles this one follows, "many-to-many" relation

Both association sides are views of the single user_follows join table
(see UserFollow), so they can never disagree with each other.

*/

type User struct {
	Id             string    `gorm:"primaryKey" json:"id"`
	SubjectId      string    `gorm:"uniqueIndex:idx_users_subject_id" json:"-"`
	Handle         string    `gorm:"uniqueIndex:idx_users_handle" json:"handle"`
	DisplayName    string    `json:"displayName"`
	Description    string    `json:"description"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	Followers []*User `json:"followers,omitempty" gorm:"many2many:user_follows;foreignKey:Id;joinForeignKey:FolloweeID;References:Id;joinReferences:FollowerID"`
	Following []*User `json:"following,omitempty" gorm:"many2many:user_follows;foreignKey:Id;joinForeignKey:FollowerID;References:Id;joinReferences:FolloweeID"`
}

// DefaultProfilePicture is the sentinel avatar assigned at registration until
// the user uploads their own.
const DefaultProfilePicture = "https://robohash.org/potluck?set=set4&bgset=&size=400x400"

// MaxDescriptionLength bounds the profile bio.
const MaxDescriptionLength = 150

// ProfileSummary is the lightweight projection returned by the
// follower/following listings.
type ProfileSummary struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}
