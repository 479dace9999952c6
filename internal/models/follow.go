package models

import (
	"github.com/google/uuid"
)

// Follow is a directed edge: the follower reads the followee's peeps.
type Follow struct {
	FollowerID uuid.UUID `gorm:"type:uuid;primaryKey" json:"follower_id"`
	FolloweeID uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"followee_id"`
	Follower   *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followee   *User     `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName pins the table name used by raw timeline queries.
func (Follow) TableName() string {
	return "follows"
}

// FollowRequest names the account to follow or unfollow.
type FollowRequest struct {
	FolloweeID uuid.UUID `json:"followee_id"`
}
