// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"sort"
	"time"

	"github.com/jeranaias/divecoach/internal/model"
	"github.com/jeranaias/divecoach/internal/util"
)

// Compute derives the usage summary from a session collection. Dates, hours
// and weekdays are bucketed in loc (time.Local when nil).
func Compute(sessions []model.ChatSession, loc *time.Location) model.Metrics {
	if loc == nil {
		loc = time.Local
	}

	m := model.Metrics{
		TotalSessions:    len(sessions),
		MessagesOverTime: []model.DailyCount{},
	}
	if len(sessions) == 0 {
		return m
	}

	var (
		words, replyWords, replies int
		durationMs                 int64
		byDay                      = map[string]int{}
		byHour                     [24]int
		byWeekday                  [7]int
	)

	for _, s := range sessions {
		m.TotalMessages += len(s.Messages)
		if d := s.UpdatedAt - s.CreatedAt; d > 0 {
			durationMs += d
		}
		for _, msg := range s.Messages {
			n := util.WordCount(msg.Content)
			words += n
			if msg.Role == model.RoleAssistant {
				replyWords += n
				replies++
			}

			at := msg.Time().In(loc)
			byDay[at.Format("2006-01-02")]++
			byHour[at.Hour()]++
			byWeekday[at.Weekday()]++
		}
	}

	m.AvgMessagesPerSession = float64(m.TotalMessages) / float64(len(sessions))
	m.AvgSessionDuration = float64(durationMs) / float64(len(sessions)) / float64(time.Minute/time.Millisecond)
	if m.TotalMessages > 0 {
		m.AvgWordCount = float64(words) / float64(m.TotalMessages)
		m.MostActiveHour = argmax(byHour[:])
		m.MostActiveDay = time.Weekday(argmax(byWeekday[:])).String()
	}
	if replies > 0 {
		m.AvgResponseLength = float64(replyWords) / float64(replies)
	}

	for day, n := range byDay {
		m.MessagesOverTime = append(m.MessagesOverTime, model.DailyCount{Date: day, Count: n})
	}
	sort.Slice(m.MessagesOverTime, func(i, j int) bool {
		return m.MessagesOverTime[i].Date < m.MessagesOverTime[j].Date
	})
	return m
}

// argmax returns the first index holding the largest value.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
