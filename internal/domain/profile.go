package domain

import "time"

// MaxInterests caps a profile's interest set.
const MaxInterests = 5

// InterestLibrary is the fixed, ordered interest vocabulary.
var InterestLibrary = []string{
	"Web Dev",
	"App Dev",
	"AI/ML",
	"Robotics",
	"Electronics",
	"Mechanical",
	"Finance",
	"Photography",
	"Video Editing",
	"Design",
	"Coding",
	"Cybersecurity",
	"Game Dev",
	"Blockchain",
	"Product Strategy",
	"Marketing",
	"Content Creation",
	"Data Science",
	"Hardware",
	"Community Building",
}

// IsInterest reports whether term belongs to InterestLibrary.
func IsInterest(term string) bool {
	for _, t := range InterestLibrary {
		if t == term {
			return true
		}
	}
	return false
}

// UserProfile is stored at users/{uid}.
type UserProfile struct {
	ID        string    `json:"-"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	PhotoURL  string    `json:"photoURL"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"createdAt"`
}
