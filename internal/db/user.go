package db

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// User represents a dashboard user that can sign in to the UI, edit
// feature summaries and own API keys. The bootstrap admin user (from env)
// will be created as a row in this table on startup.
type User struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	// IsAdmin marks users that can manage other users and global
	// settings. The bootstrap admin will have IsAdmin=true.
	IsAdmin bool `gorm:"default:false"`

	// CanEditAll lets the user edit every feature's release notes summary.
	CanEditAll bool `gorm:"default:false"`

	// EditableFeatures lists the feature IDs this user may edit otherwise.
	EditableFeatures datatypes.JSONSlice[int64] `gorm:"type:json"`

	// TimeFormat: "12" = 12-hour, "24" = 24-hour. Default "12".
	TimeFormat string `gorm:"size:8;default:12"`
	// DateFormat: "dd-mm-yyyy", "mm-dd-yyyy", "yyyy-mm-dd". Default "dd-mm-yyyy".
	DateFormat string `gorm:"size:16;default:dd-mm-yyyy"`
}

// CanEdit reports whether u may edit the feature with the given id.
func (u *User) CanEdit(featureID int64) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || u.CanEditAll || slices.Contains(u.EditableFeatures, featureID)
}
