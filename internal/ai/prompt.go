// Package ai はブックマークとレビューに基づくAI旅行プラン生成を提供する。
package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/abroadly/internal/bookmark"
	"github.com/hitoshi/abroadly/internal/model"
)

// PlanRequest は旅行プラン生成の入力。全フィールド任意。
type PlanRequest struct {
	TravelStartDate string   // ISO形式の日付文字列
	TravelEndDate   string   // ISO形式の日付文字列
	Budget          string   // low / medium / high 等
	TravelStyle     string   // adventure / relaxed / cultural 等
	Priorities      []string // food, sightseeing, nightlife 等
	AdditionalNotes string
}

// reviewSnippet はプロンプトに埋め込むレビューの抜粋。
type reviewSnippet struct {
	Rating int
	Text   string
}

// itemReviews はアイテムIDごとのレビュー抜粋。
type itemReviews map[int64][]reviewSnippet

const (
	// maxReviewsPerItem はアイテムごとにプロンプトへ含めるレビューの上限。
	maxReviewsPerItem = 3
	// maxReviewChars はレビュー本文の切り詰め長。
	maxReviewChars = 150
	// maxDescriptionChars は説明文の切り詰め長。
	maxDescriptionChars = 200
)

// systemPrompt は旅行プランナーのシステムプロンプト。
// ブックマークしたプログラムは現在の滞在地であり、そこからの旅行を計画させる。
const systemPrompt = `You are an expert travel planner specializing in study abroad experiences. You help students plan amazing trips based on their bookmarked programs, places, and trips.

IMPORTANT CONTEXT:
- The user's bookmarked PROGRAMS represent where they are CURRENTLY STUDYING ABROAD (their home base/current location)
- Do NOT plan trips TO the program locations - the user is already there!
- Instead, plan trips FROM the program locations to the bookmarked places
- Consider travel logistics from their program city (flights, trains, buses)

Your role is to:
1. Analyze the user's bookmarked items and their reviews
2. Use their program location as the starting point for travel
3. Consider the travel dates, season, and weather implications
4. Create a personalized, day-by-day itinerary from their program city
5. Incorporate insights from reviews (what students loved, tips, warnings)
6. Balance activities with rest time
7. Consider budget constraints if mentioned
8. Suggest the best times to visit specific places based on reviews
9. Include practical travel tips for getting to destinations

Format your response as a well-structured travel plan with:
- An exciting overview/summary
- Day-by-day itinerary with specific recommendations
- Transportation suggestions from their program city
- Tips based on student reviews
- Budget considerations (including travel costs from program location)
- Packing suggestions based on season/activities
- Any warnings or things to watch out for

Be enthusiastic, helpful, and include specific details from the reviews to make recommendations feel personal and authentic. Use emojis sparingly.`

// quickSuggestionSystemPrompt はワンライナー提案用のシステムプロンプト。
const quickSuggestionSystemPrompt = "You are a friendly travel advisor. Give a brief, encouraging one-liner suggestion."

// seasonContext は旅行開始日から季節と気候の説明文を生成する。
// 日付が空または不正な場合は現在日時を使用する。
func seasonContext(dateStr string, now func() time.Time) string {
	month := now().Month()
	if dateStr != "" {
		if t, err := time.Parse("2006-01-02", dateStr); err == nil {
			month = t.Month()
		} else if t, err := time.Parse(time.RFC3339, dateStr); err == nil {
			month = t.Month()
		}
	}

	switch month {
	case time.December, time.January, time.February:
		return "winter (December-February) - expect cold weather in the Northern Hemisphere, summer in the Southern Hemisphere"
	case time.March, time.April, time.May:
		return "spring (March-May) - mild weather, shoulder season for travel"
	case time.June, time.July, time.August:
		return "summer (June-August) - warm weather in the Northern Hemisphere, winter in the Southern Hemisphere"
	default:
		return "fall/autumn (September-November) - cooling weather, great for outdoor activities"
	}
}

// formatBookmarks はブックマークとレビューをプロンプト用テキストに整形する。
func formatBookmarks(c *bookmark.Collection, programReviews, placeReviews, tripReviews itemReviews) string {
	var sections []string

	if len(c.Programs) > 0 {
		var b strings.Builder
		b.WriteString("## User's Current Study Abroad Location(s) - Their Home Base:\n")
		b.WriteString("(Plan trips FROM these locations, not TO them)\n")
		for _, p := range c.Programs {
			fmt.Fprintf(&b, "\n### %s\n", p.ProgramName)
			fmt.Fprintf(&b, "- Institution: %s\n", p.Institution)
			fmt.Fprintf(&b, "- Location: %s, %s\n", p.City, p.Country)
			fmt.Fprintf(&b, "- Duration: %s\n", orNA(p.Duration))
			if p.Cost != nil {
				fmt.Fprintf(&b, "- Cost: $%.0f\n", *p.Cost)
			} else {
				b.WriteString("- Cost: $N/A\n")
			}
			if p.Description != nil && *p.Description != "" {
				fmt.Fprintf(&b, "- Description: %s...\n", clip(*p.Description, maxDescriptionChars))
			}
			writeReviews(&b, "- Student Reviews:", programReviews[p.ID])
		}
		sections = append(sections, b.String())
	}

	if len(c.Places) > 0 {
		var b strings.Builder
		b.WriteString("## Bookmarked Places to Visit (Destinations):\n")
		for _, p := range c.Places {
			fmt.Fprintf(&b, "\n### %s\n", p.Name)
			fmt.Fprintf(&b, "- Category: %s\n", p.Category)
			fmt.Fprintf(&b, "- Location: %s, %s\n", p.City, p.Country)
			if p.Address != nil && *p.Address != "" {
				fmt.Fprintf(&b, "- Address: %s\n", *p.Address)
			}
			if p.Description != nil && *p.Description != "" {
				fmt.Fprintf(&b, "- Description: %s...\n", clip(*p.Description, maxDescriptionChars))
			}
			writeReviews(&b, "- Reviews:", placeReviews[p.ID])
		}
		sections = append(sections, b.String())
	}

	if len(c.Trips) > 0 {
		var b strings.Builder
		b.WriteString("## Bookmarked Trip Destinations:\n")
		for _, t := range c.Trips {
			fmt.Fprintf(&b, "\n### %s\n", t.Destination)
			fmt.Fprintf(&b, "- Country: %s\n", t.Country)
			fmt.Fprintf(&b, "- Trip Type: %s\n", orNA(t.TripType))
			if t.Description != nil && *t.Description != "" {
				fmt.Fprintf(&b, "- Description: %s...\n", clip(*t.Description, maxDescriptionChars))
			}
			writeReviews(&b, "- Reviews:", tripReviews[t.ID])
		}
		sections = append(sections, b.String())
	}

	if len(sections) == 0 {
		return "No bookmarked items found."
	}
	return strings.Join(sections, "\n\n")
}

// writeReviews はレビュー抜粋を上限件数まで書き出す。
func writeReviews(b *strings.Builder, header string, reviews []reviewSnippet) {
	if len(reviews) == 0 {
		return
	}
	b.WriteString(header + "\n")
	for i, r := range reviews {
		if i >= maxReviewsPerItem {
			break
		}
		fmt.Fprintf(b, "  * Rating: %d/5 - %q\n", r.Rating, clip(r.Text, maxReviewChars)+"...")
	}
}

// buildUserPrompt はブックマーク一覧とユーザーの希望からプロンプト本文を組み立てる。
func buildUserPrompt(user *model.User, req PlanRequest, bookmarksContext, season string) string {
	name := "Traveler"
	if user.FirstName != nil && *user.FirstName != "" {
		name = *user.FirstName
	}

	userContext := fmt.Sprintf(`## User's Travel Preferences:
- Travel Dates: %s to %s
- Season: %s
- Budget Level: %s
- Travel Style: %s
- Priorities: %s
- Additional Notes: %s

## User's Name: %s`,
		orFlexible(req.TravelStartDate), orFlexible(req.TravelEndDate),
		season,
		orNotSpecified(req.Budget), orNotSpecified(req.TravelStyle),
		joinOrNotSpecified(req.Priorities), orNone(req.AdditionalNotes),
		name,
	)

	return fmt.Sprintf(`Based on the following bookmarked items and preferences, create an amazing personalized travel plan!

%s

%s

REMEMBER: The user is currently studying abroad at their bookmarked program location(s). Plan trips FROM their program city TO the bookmarked places and trip destinations. Include practical transportation suggestions.

Please create a detailed, day-by-day travel itinerary that makes the most of these bookmarked destinations. Reference specific reviews to explain why you're recommending certain activities or places. Make it personal!`,
		bookmarksContext, userContext)
}

// clip は文字列を最大maxルーンに切り詰める。
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func orNA(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}

func orFlexible(v string) string {
	if v == "" {
		return "Flexible"
	}
	return v
}

func orNotSpecified(v string) string {
	if v == "" {
		return "Not specified"
	}
	return v
}

func joinOrNotSpecified(v []string) string {
	if len(v) == 0 {
		return "Not specified"
	}
	return strings.Join(v, ", ")
}

func orNone(v string) string {
	if v == "" {
		return "None"
	}
	return v
}
