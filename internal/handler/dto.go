package handler

import (
	"time"

	"github.com/msomdec/squadhub/internal/service"
)

// meDTO is the JSON shape of the signed-in user.
type meDTO struct {
	UID       string     `json:"uid"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	PhotoURL  string     `json:"photoURL,omitempty"`
	Interests []string   `json:"interests"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func toMeDTO(s *service.Session) meDTO {
	dto := meDTO{
		UID:       s.UID(),
		Email:     s.Identity.Email,
		Name:      s.AuthorName(),
		Interests: s.Interests(),
	}
	if dto.Interests == nil {
		dto.Interests = []string{}
	}
	if s.Profile != nil {
		dto.PhotoURL = s.Profile.PhotoURL
		if !s.Profile.CreatedAt.IsZero() {
			created := s.Profile.CreatedAt
			dto.CreatedAt = &created
		}
	}
	return dto
}
