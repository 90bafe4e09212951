package model

import "time"

/*

UserFollow is the directed follow relation between two profiles

FollowerID: profile initiating the follow
FolloweeID: profile being followed
CreatedAt: time when the edge is created

This join table is the single source of truth for the follow graph. A
profile's Followers and Following sets are both indexed views of it, so one
row insert or delete updates both sides atomically. The composite primary
key makes a duplicate edge a store-level conflict rather than an
application-level check.

*/

type UserFollow struct {
	FollowerID string `gorm:"primaryKey"`
	FolloweeID string `gorm:"primaryKey"`
	CreatedAt  time.Time
}
