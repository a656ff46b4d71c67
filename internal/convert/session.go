package convert

import (
	"sort"
	"time"

	"github.com/claude/strongbridge/internal/table"
)

// timedRow pairs a source row with its canonical UTC timestamp.
type timedRow struct {
	row table.Row
	ts  time.Time
}

// Session is a workout derived from all rows sharing a UTC calendar date.
// Every row in the session carries the same start, end, and duration.
type Session struct {
	Day      string // UTC calendar date, YYYY-MM-DD
	Number   int    // dense 1..N, by first occurrence in the sorted timeline
	Start    time.Time
	End      time.Time
	Duration int // whole seconds, end minus start
}

// sortByTimestamp orders rows ascending by UTC instant. The sort is stable so
// rows logged at the same second keep their export order, which keeps repeated
// conversions byte-identical.
func sortByTimestamp(rows []timedRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ts.Before(rows[j].ts)
	})
}

// groupSessions buckets timestamp-sorted rows by UTC calendar date and
// computes each session's boundaries and number.
func groupSessions(rows []timedRow) (map[string]*Session, []*Session) {
	byDay := make(map[string]*Session)
	var ordered []*Session

	for _, r := range rows {
		day := r.ts.Format("2006-01-02")
		s, ok := byDay[day]
		if !ok {
			s = &Session{
				Day:    day,
				Number: len(ordered) + 1,
				Start:  r.ts,
				End:    r.ts,
			}
			byDay[day] = s
			ordered = append(ordered, s)
			continue
		}
		if r.ts.Before(s.Start) {
			s.Start = r.ts
		}
		if r.ts.After(s.End) {
			s.End = r.ts
		}
	}

	for _, s := range ordered {
		s.Duration = int(s.End.Sub(s.Start) / time.Second)
	}
	return byDay, ordered
}
