package app

import (
	"fmt"
	"html"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"flex_reviews/internal/domain"
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstStr: first non-empty string across several paths.
func firstStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := lookupStr(m, p); s != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// getInt64Flexible: int64 from several paths (float64/int/string).
func getInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases and collapses non-alphanumeric runs into hyphens.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

var ctrlRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// sanitizeText neutralizes markup and strips control characters from
// public review text. Escaping only; the content itself is untouched.
func sanitizeText(s string) string {
	s = ctrlRe.ReplaceAllString(s, "")
	return html.EscapeString(strings.TrimSpace(s))
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

// clampRating keeps normalized ratings inside the canonical 0–10 scale.
func clampRating(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 10 {
		return 10
	}
	return f
}

// deriveOverall prefers the upstream overall score; otherwise the mean of
// category sub-ratings rounded to one decimal. Nil when neither exists.
func deriveOverall(top *float64, categories map[string]float64) *float64 {
	if top != nil {
		v := clampRating(*top)
		return &v
	}
	if len(categories) == 0 {
		return nil
	}
	var sum float64
	for _, v := range categories {
		sum += v
	}
	v := clampRating(round1(sum / float64(len(categories))))
	return &v
}

// normalizeType maps upstream "guest-to-host" style tags to snake_case.
func normalizeType(raw string) string {
	if raw == "" {
		return "unknown"
	}
	return strings.ReplaceAll(raw, "-", "_")
}

func parseHostawayTime(s string) (time.Time, bool) {
	// Hostaway sends "2020-08-21 22:45:14" (UTC, no zone).
	if t, err := time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

/********** hostaway channel adapter **********/

// NormalizeHostaway maps raw Hostaway review items into canonical records.
// Items without a usable id are dropped; the count of drops is returned so
// a partial result can still be served.
func NormalizeHostaway(items []map[string]any) ([]domain.NormalizedReview, int) {
	out := make([]domain.NormalizedReview, 0, len(items))
	dropped := 0
	for _, item := range items {
		id := getInt64Flexible(item, "id")
		if id == nil {
			dropped++
			continue
		}

		listingName := lookupStr(item, "listingName")
		if listingName == "" {
			listingName = "Unknown Listing"
		}

		categories := map[string]float64{}
		if raw, ok := lookupAny(item, "reviewCategory").([]any); ok {
			for _, c := range raw {
				cm, ok := c.(map[string]any)
				if !ok {
					continue
				}
				name := lookupStr(cm, "category")
				if name == "" {
					name = "unknown"
				}
				if f := getFloatFlexible(cm, "rating"); f != nil {
					categories[name] = clampRating(*f)
				}
			}
		}

		var submitted time.Time
		if ts := lookupStr(item, "submittedAt"); ts != "" {
			if t, ok := parseHostawayTime(ts); ok {
				submitted = t
			}
		}

		status := lookupStr(item, "status")
		if status == "" {
			status = "unknown"
		}

		var textPtr *string
		if txt := firstStr(item, "publicReview", "review", "comment"); txt != "" {
			textPtr = ptrStr(sanitizeText(txt))
		}

		out = append(out, domain.NormalizedReview{
			ReviewID:        strconv.FormatInt(*id, 10),
			ListingID:       "hostaway:" + slugify(listingName),
			ListingName:     listingName,
			Channel:         domain.ChannelHostaway,
			Type:            normalizeType(lookupStr(item, "type")),
			Status:          status,
			RatingOverall:   deriveOverall(getFloatFlexible(item, "rating"), categories),
			CategoryRatings: categories,
			TextPublic:      textPtr,
			SubmittedAt:     submitted,
			AuthorName:      ptrStr(lookupStr(item, "guestName")),
			Approved:        false,
		})
	}
	return DedupeLatest(out), dropped
}

/********** google places channel adapter **********/

// NormalizeGoogle maps a Place Details payload into canonical records.
// Google star ratings are 1–5; the canonical scale is 0–10, so they are
// doubled. listingID overrides the derived "google:<place_id>" id.
func NormalizeGoogle(place map[string]any, listingID string) ([]domain.NormalizedReview, int) {
	placeID := lookupStr(place, "place_id")
	if placeID == "" {
		placeID = "unknown"
	}
	listingName := lookupStr(place, "name")
	if listingName == "" {
		listingName = "Google Place"
	}
	if listingID == "" {
		listingID = "google:" + placeID
	}

	raw, _ := lookupAny(place, "reviews").([]any)
	out := make([]domain.NormalizedReview, 0, len(raw))
	dropped := 0
	for _, it := range raw {
		r, ok := it.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		ts := getInt64Flexible(r, "time")
		if ts == nil {
			// review_id is place_id:time; without the timestamp there is
			// no stable identity.
			dropped++
			continue
		}

		var ratingPtr *float64
		if f := getFloatFlexible(r, "rating"); f != nil {
			v := clampRating(*f * 2.0)
			ratingPtr = &v
		}

		var textPtr *string
		if txt := firstStr(r, "text", "original_text.text"); txt != "" {
			textPtr = ptrStr(sanitizeText(txt))
		}

		out = append(out, domain.NormalizedReview{
			ReviewID:        fmt.Sprintf("%s:%d", placeID, *ts),
			ListingID:       listingID,
			ListingName:     listingName,
			Channel:         domain.ChannelGoogle,
			Type:            "guest_to_host",
			Status:          "published",
			RatingOverall:   ratingPtr,
			CategoryRatings: map[string]float64{},
			TextPublic:      textPtr,
			SubmittedAt:     time.Unix(*ts, 0).UTC(),
			AuthorName:      ptrStr(lookupStr(r, "author_name")),
			Approved:        false,
		})
	}
	return DedupeLatest(out), dropped
}

/********** normalization engine passes **********/

// DedupeLatest drops earlier duplicates of the same review_id; the most
// recently fetched record wins. Relative order is otherwise preserved.
func DedupeLatest(rs []domain.NormalizedReview) []domain.NormalizedReview {
	last := make(map[string]int, len(rs))
	for i, r := range rs {
		last[r.ReviewID] = i
	}
	out := rs[:0]
	for i, r := range rs {
		if last[r.ReviewID] == i {
			out = append(out, r)
		}
	}
	return out
}

// ApplyOverlay stamps the curated approval decision onto each record.
// The overlay always wins; upstream payloads never carry approval.
func ApplyOverlay(rs []domain.NormalizedReview, approvals map[string]bool) {
	for i := range rs {
		rs[i].Approved = approvals[rs[i].ReviewID]
	}
}

// SortForDisplay orders newest first; ties break by review_id ascending
// so identical queries always return identical order.
func SortForDisplay(rs []domain.NormalizedReview) {
	sort.SliceStable(rs, func(i, j int) bool {
		if !rs[i].SubmittedAt.Equal(rs[j].SubmittedAt) {
			return rs[i].SubmittedAt.After(rs[j].SubmittedAt)
		}
		return rs[i].ReviewID < rs[j].ReviewID
	})
}

// Filter applies listing → approved → rating/type/status/date restrictions.
func Filter(rs []domain.NormalizedReview, q domain.ReviewsQuery) []domain.NormalizedReview {
	out := make([]domain.NormalizedReview, 0, len(rs))
	for _, r := range rs {
		if q.ListingID != nil && r.ListingID != *q.ListingID {
			continue
		}
		if q.Approved != nil && r.Approved != *q.Approved {
			continue
		}
		if q.MinRating != nil {
			if r.RatingOverall == nil || *r.RatingOverall < *q.MinRating {
				continue
			}
		}
		if q.Type != nil && r.Type != *q.Type {
			continue
		}
		if q.Status != nil && r.Status != *q.Status {
			continue
		}
		if q.Start != nil && r.SubmittedAt.Before(*q.Start) {
			continue
		}
		if q.End != nil && r.SubmittedAt.After(*q.End) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize computes the dashboard reducers over an already-normalized set.
func Summarize(rs []domain.NormalizedReview) domain.Summary {
	s := domain.Summary{Count: len(rs), CategoryAverages: map[string]float64{}}
	var sum float64
	rated := 0
	catSums := map[string]float64{}
	catCounts := map[string]int{}
	for _, r := range rs {
		if r.RatingOverall != nil {
			sum += *r.RatingOverall
			rated++
		}
		for k, v := range r.CategoryRatings {
			catSums[k] += v
			catCounts[k]++
		}
	}
	if rated > 0 {
		avg := round1(sum / float64(rated))
		s.AverageRating = &avg
	}
	for k, v := range catSums {
		s.CategoryAverages[k] = round1(v / float64(catCounts[k]))
	}
	return s
}
