// Package view renders pages and SSE fragments as templ components.
package view

import (
	"fmt"
	"net/url"
	"time"

	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
)

const defaultAvatar = "https://images.unsplash.com/photo-1535713875002-d1d0cf377fde?w=200"

// actionURL is the Datastar action endpoint of a page, with optional
// query parameters as key/value pairs.
func actionURL(pageID string, kv ...string) string {
	u := "/pages/" + url.PathEscape(pageID) + "/actions"
	if len(kv) == 0 {
		return u
	}
	q := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		q.Set(kv[i], kv[i+1])
	}
	return u + "?" + q.Encode()
}

// postAction posts the given action parameters to the page.
func postAction(pageID string, kv ...string) string {
	return "@post('" + actionURL(pageID, kv...) + "')"
}

// formAction submits the enclosing form's fields to the page.
func formAction(pageID string) string {
	return "@post('" + actionURL(pageID) + "', {contentType: 'form'})"
}

func groupHref(id string) string {
	return "/group?id=" + url.QueryEscape(id)
}

func avatarURL(profile *domain.UserProfile) string {
	if profile != nil && profile.PhotoURL != "" {
		return profile.PhotoURL
	}
	return defaultAvatar
}

func profileName(session *service.Session) string {
	if session.Profile == nil {
		return ""
	}
	return session.Profile.Name
}

func profilePhoto(session *service.Session) string {
	if session.Profile == nil {
		return ""
	}
	return session.Profile.PhotoURL
}

func groupTitle(page *service.PageState) string {
	if page != nil && page.Detail.Group() != nil {
		return page.Detail.Group().Name
	}
	return "Group"
}

// dashboardNotice prefers the request's own notice over a section failure.
func dashboardNotice(d *service.Dashboard, notice *domain.Notice) *domain.Notice {
	if notice != nil {
		return notice
	}
	return d.Notice
}

func ariaBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "Just now"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "recently"
	}
	return t.Local().Format("Jan 2, 2006")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
