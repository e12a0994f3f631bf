package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hiretrack/internal/pipeline"
	"hiretrack/internal/store"
)

var dateLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02",
}

func parseID(arg, label string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", label, arg)
	}
	return id, nil
}

func parsePositiveIDs(args []string, label string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg, label)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseWhen accepts a date or a date with minutes in local time.
func parseWhen(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")", value)
}

func optionalWhen(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := parseWhen(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// resolveTrigrams maps consultant trigrams to ids.
func resolveTrigrams(ctx context.Context, st *store.Store, trigrams []string) ([]int64, error) {
	ids := make([]int64, 0, len(trigrams))
	for _, tri := range trigrams {
		for _, part := range strings.Split(tri, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			c, err := st.Read().ConsultantByTrigram(ctx, part)
			if err != nil {
				return nil, fmt.Errorf("consultant %s: %w", part, err)
			}
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func resolveTrigram(ctx context.Context, st *store.Store, trigram string) (int64, error) {
	ids, err := resolveTrigrams(ctx, st, []string{trigram})
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("expected one consultant trigram, got %q", trigram)
	}
	return ids[0], nil
}

// trigramLabel renders consultant ids as trigrams.
func trigramLabel(ids []int64, consultants map[int64]pipeline.Consultant) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if c, ok := consultants[id]; ok {
			parts = append(parts, c.Trigram)
			continue
		}
		parts = append(parts, "#"+strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatWhen(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func dash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func truncate(value string, width int) string {
	runes := []rune(value)
	if len(runes) <= width {
		return value
	}
	if width <= 1 {
		return string(runes[:width])
	}
	return string(runes[:width-1]) + "…"
}
