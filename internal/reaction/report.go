package reaction

import (
	"fmt"
	"strings"
	"time"
)

const (
	reportDivider    = "━━━━━━━━━━━━━━━━━━"
	reportTimeLayout = "2006-01-02 15:04:05"
	reportHeader     = "🟢全チャンネル合計の回答回数降順:"
)

// Render formats groups as the posted report. now is printed as-is, so the
// caller chooses its location.
func Render(groups []Group, now time.Time) string {
	var b strings.Builder
	b.WriteString(reportDivider + "\n")
	fmt.Fprintf(&b, "%s 時点の集計結果\n", now.Format(reportTimeLayout))
	b.WriteString(reportDivider + "\n\n")
	b.WriteString(reportHeader + "\n")
	for _, g := range SortGroups(groups) {
		fmt.Fprintf(&b, "  - %s: %d回\n", g.Name, g.Count)
	}
	return b.String()
}
