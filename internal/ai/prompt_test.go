package ai

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/abroadly/internal/bookmark"
	"github.com/hitoshi/abroadly/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2024, time.July, 15, 12, 0, 0, 0, time.UTC)
}

func TestSeasonContext(t *testing.T) {
	tests := []struct {
		name    string
		dateStr string
		want    string
	}{
		{
			name:    "冬の日付",
			dateStr: "2024-01-10",
			want:    "winter (December-February)",
		},
		{
			name:    "春の日付",
			dateStr: "2024-04-01",
			want:    "spring (March-May)",
		},
		{
			name:    "夏の日付",
			dateStr: "2024-08-20",
			want:    "summer (June-August)",
		},
		{
			name:    "秋の日付",
			dateStr: "2024-10-05",
			want:    "fall/autumn (September-November)",
		},
		{
			name:    "RFC3339形式",
			dateStr: "2024-12-01T00:00:00Z",
			want:    "winter (December-February)",
		},
		{
			name:    "空文字列は現在日時",
			dateStr: "",
			want:    "summer (June-August)",
		},
		{
			name:    "不正な日付は現在日時",
			dateStr: "not-a-date",
			want:    "summer (June-August)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seasonContext(tt.dateStr, fixedNow)
			if !strings.HasPrefix(got, tt.want) {
				t.Errorf("seasonContext(%q) = %q, want prefix %q", tt.dateStr, got, tt.want)
			}
		})
	}
}

func strPtr(s string) *string { return &s }

func TestFormatBookmarks(t *testing.T) {
	cost := 15000.0
	collection := &bookmark.Collection{
		Programs: []model.BookmarkedProgram{
			{Program: model.Program{
				ID:          1,
				ProgramName: "Vanderbilt in Madrid",
				Institution: "Universidad Autónoma",
				City:        "Madrid",
				Country:     "Spain",
				Duration:    strPtr("Semester"),
				Cost:        &cost,
			}},
		},
		Places: []model.BookmarkedPlace{
			{Place: model.Place{
				ID:       2,
				Name:     "Park Güell",
				Category: "attraction",
				City:     "Barcelona",
				Country:  "Spain",
			}},
		},
		Trips: []model.BookmarkedTrip{
			{Trip: model.Trip{
				ID:          3,
				Destination: "Lisbon",
				Country:     "Portugal",
				TripType:    strPtr("weekend"),
			}},
		},
	}
	programReviews := itemReviews{
		1: {{Rating: 5, Text: "Incredible semester, the host families are wonderful."}},
	}

	got := formatBookmarks(collection, programReviews, itemReviews{}, itemReviews{})

	wantFragments := []string{
		"## User's Current Study Abroad Location(s) - Their Home Base:",
		"(Plan trips FROM these locations, not TO them)",
		"### Vanderbilt in Madrid",
		"- Institution: Universidad Autónoma",
		"- Location: Madrid, Spain",
		"- Cost: $15000",
		"- Student Reviews:",
		"Rating: 5/5",
		"## Bookmarked Places to Visit (Destinations):",
		"### Park Güell",
		"- Category: attraction",
		"## Bookmarked Trip Destinations:",
		"### Lisbon",
		"- Trip Type: weekend",
	}
	for _, want := range wantFragments {
		if !strings.Contains(got, want) {
			t.Errorf("formatBookmarks() missing %q in:\n%s", want, got)
		}
	}
}

func TestFormatBookmarksEmpty(t *testing.T) {
	got := formatBookmarks(&bookmark.Collection{}, itemReviews{}, itemReviews{}, itemReviews{})
	if got != "No bookmarked items found." {
		t.Errorf("formatBookmarks() = %q, want %q", got, "No bookmarked items found.")
	}
}

func TestWriteReviewsLimitsAndClips(t *testing.T) {
	long := strings.Repeat("a", 200)
	reviews := []reviewSnippet{
		{Rating: 5, Text: long},
		{Rating: 4, Text: "second"},
		{Rating: 3, Text: "third"},
		{Rating: 2, Text: "fourth should be dropped"},
	}

	var b strings.Builder
	writeReviews(&b, "- Reviews:", reviews)
	got := b.String()

	if strings.Contains(got, "fourth should be dropped") {
		t.Error("writeReviews() included more than the review limit")
	}
	if strings.Contains(got, long) {
		t.Error("writeReviews() did not clip a long review")
	}
	if !strings.Contains(got, strings.Repeat("a", maxReviewChars)+"...") {
		t.Error("writeReviews() should append ... to a clipped review")
	}
}

func TestBuildUserPrompt(t *testing.T) {
	first := "Alice"
	user := &model.User{ID: 1, Email: "alice@vanderbilt.edu", FirstName: &first}
	req := PlanRequest{
		TravelStartDate: "2024-07-01",
		Budget:          "medium",
		Priorities:      []string{"food", "sightseeing"},
	}

	got := buildUserPrompt(user, req, "No bookmarked items found.", "summer (June-August)")

	wantFragments := []string{
		"- Travel Dates: 2024-07-01 to Flexible",
		"- Season: summer (June-August)",
		"- Budget Level: medium",
		"- Travel Style: Not specified",
		"- Priorities: food, sightseeing",
		"- Additional Notes: None",
		"## User's Name: Alice",
	}
	for _, want := range wantFragments {
		if !strings.Contains(got, want) {
			t.Errorf("buildUserPrompt() missing %q", want)
		}
	}
}

func TestBuildUserPromptFallbackName(t *testing.T) {
	user := &model.User{ID: 1, Email: "anon@vanderbilt.edu"}
	got := buildUserPrompt(user, PlanRequest{}, "", "spring (March-May)")
	if !strings.Contains(got, "## User's Name: Traveler") {
		t.Error("buildUserPrompt() should fall back to Traveler when the first name is unset")
	}
}
