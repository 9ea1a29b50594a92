package comment

import (
	"fmt"
	"strconv"
	"strings"

	"barrage/models"
)

// Normalize converts raw upstream records into canonical comments. Each
// record is branched on its shape independently because upstreams can mix
// formats inside one response. Records that fit no shape, or whose attribute
// string fails to parse, are skipped. Sequence ids are dense from 1 in
// input order.
func Normalize(raws []models.RawComment, platform models.Platform) []models.Comment {
	out := make([]models.Comment, 0, len(raws))
	tag := string(platform)
	cid := 0

	for _, r := range raws {
		var (
			offset float64
			mode   int
			color  int
			text   string
		)

		switch {
		case r.Attr != "":
			parts := strings.Split(r.Attr, ",")
			if len(parts) < 4 {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			if err != nil {
				continue
			}
			offset = v
			mode, _ = strconv.Atoi(parts[1])
			color, _ = strconv.Atoi(parts[3])
			text = r.Text

		case r.HasProgress:
			offset = float64(r.Progress) / 1000.0
			mode = r.Mode
			if mode == 0 {
				mode = models.ModeScroll
			}
			color = r.Color
			text = r.Content

		case r.Content != "":
			offset = r.TimePoint
			mode = r.CT
			color = r.Color
			text = r.Content

		default:
			continue
		}

		if color <= 0 {
			color = models.DefaultColor
		}

		cid++
		out = append(out, models.Comment{
			P:   fmt.Sprintf("%.2f,%d,%d,[%s]", offset, mode, color, tag),
			M:   text,
			CID: cid,
		})
	}
	return out
}
