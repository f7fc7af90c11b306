package view_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/msomdec/squadhub/internal/domain"
	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestToast_EscapesMessage(t *testing.T) {
	got := render(t, view.Toast(domain.ErrorNotice("<b>nope</b>")))
	if !strings.Contains(got, `data-variant="error"`) {
		t.Fatalf("expected error variant, got %s", got)
	}
	if strings.Contains(got, "<b>") || !strings.Contains(got, "&lt;b&gt;nope&lt;/b&gt;") {
		t.Fatalf("expected escaped message, got %s", got)
	}
}

func TestInterestPanel_SaveButton(t *testing.T) {
	empty := service.NewInterestSelector(nil)

	got := render(t, view.InterestPanel("p1", empty, view.OnboardingInterests))
	if !strings.Contains(got, `<button type="submit" disabled>Continue</button>`) {
		t.Fatalf("expected onboarding save disabled without a selection, got %s", got)
	}
	if !strings.Contains(got, "0 / 5 selected") {
		t.Fatalf("expected summary, got %s", got)
	}

	got = render(t, view.InterestPanel("p1", empty, view.ProfileInterests))
	if !strings.Contains(got, `<button type="submit">Save changes</button>`) {
		t.Fatalf("expected profile save enabled, got %s", got)
	}

	got = render(t, view.InterestPanel("p1", service.NewInterestSelector([]string{"Coding"}), view.OnboardingInterests))
	if !strings.Contains(got, `aria-pressed="true"`) || strings.Contains(got, " disabled") {
		t.Fatalf("expected active chip and enabled save, got %s", got)
	}
	if !strings.Contains(got, "/pages/p1/actions?action=toggle_interest&amp;term=Coding") {
		t.Fatalf("expected toggle action url, got %s", got)
	}
}

func TestPage_AuthWatchOnlyWhenSignedIn(t *testing.T) {
	signedOut := render(t, view.AuthPage("a@b.c", nil))
	if strings.Contains(signedOut, "/auth/watch") {
		t.Fatal("signed-out pages must not watch the session")
	}
	if !strings.Contains(signedOut, `value="a@b.c"`) {
		t.Fatalf("expected email to be kept, got %s", signedOut)
	}

	session := &service.Session{Identity: domain.Identity{UID: "u1", Email: "a@b.c"}}
	signedIn := render(t, view.ProfilePage(session, nil, domain.InfoNotice("hi")))
	if !strings.Contains(signedIn, `data-init="@get('/auth/watch')"`) {
		t.Fatalf("expected auth watcher, got %s", signedIn)
	}
	if !strings.Contains(signedIn, `data-variant="info"`) {
		t.Fatalf("expected toast in the shell, got %s", signedIn)
	}
}

func TestGroupDetail_Loading(t *testing.T) {
	page := &service.PageState{
		ID:     "p1",
		Kind:   service.PageGroup,
		Detail: service.NewGroupDetailView(nil, nil, "g1"),
	}
	got := render(t, view.GroupDetail(page))
	if !strings.HasPrefix(got, `<div id="group-detail">`) || !strings.Contains(got, "Loading group") {
		t.Fatalf("unexpected markup %s", got)
	}
}
