package user

import (
	"context"
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/course-payments/internal/core/datamodel/user"
)

// Profile is the display metadata the rest of the service reads from the users database.
type Profile struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Directory is the read-only lookup over the users database.
type Directory interface {
	Lookup(ctx context.Context, userID int64) (*Profile, error)
	// LookupMany fetches several profiles at once. Ids with no row are absent from the result.
	LookupMany(ctx context.Context, userIDs []int64) (map[int64]*Profile, error)
}

var ErrNotFound = errors.New("user not found")

func FromDataModel(u *userDatamodel.User) *Profile {
	p := &Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
	if u.AvatarURL != nil {
		p.AvatarURL = *u.AvatarURL
	}
	return p
}
