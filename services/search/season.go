package search

import (
	"regexp"
	"strings"

	"barrage/utils/cnnum"
)

var (
	cnSeasonRe = regexp.MustCompile(`第([0-9零一二两三四五六七八九十百壹贰貳叁肆伍陆陸柒捌玖拾佰]+)季`)
	enSeasonRe = regexp.MustCompile(`(?i)season\s*(\d+)`)

	fileSxxExxRe = regexp.MustCompile(`(?i)^(.+?)[.\s_-]*S(\d{1,2})E(\d{1,4})`)
	fileCnRe     = regexp.MustCompile(`^(.+?)\s*第([0-9零一二两三四五六七八九十百壹贰貳叁肆伍陆陸柒捌玖拾佰]+)季\s*第(\d{1,4})[集话話]`)
	fileEpOnlyRe = regexp.MustCompile(`^(.+?)\s*第(\d{1,4})[集话話]`)
)

// ExtractSeason splits a program title into its base name and season
// number. Titles with no season marker report season 0.
func ExtractSeason(title string) (string, int) {
	if m := cnSeasonRe.FindStringSubmatch(title); m != nil {
		if n := cnnum.Parse(m[1]); n > 0 {
			base := strings.TrimSpace(strings.Replace(title, m[0], "", 1))
			return base, n
		}
	}
	if m := enSeasonRe.FindStringSubmatch(title); m != nil {
		if n := cnnum.Parse(m[1]); n > 0 {
			base := strings.TrimSpace(strings.Replace(title, m[0], "", 1))
			return base, n
		}
	}
	return strings.TrimSpace(title), 0
}

// MatchSeason reports whether a result title belongs to the wanted
// season. A bare title with no season marker counts as season 1, so
// "请回答1988" matches a season-1 query.
func MatchSeason(title string, want int) bool {
	if want <= 0 {
		return true
	}
	_, season := ExtractSeason(title)
	if season == 0 {
		return want == 1
	}
	return season == want
}

// ParsedFileName is the outcome of episode filename parsing.
type ParsedFileName struct {
	Title   string
	Season  int
	Episode int
}

// ParseFileName recognizes the two common episode naming schemes:
// "Title S01E02" and "标题 第一季 第2集". A bare "标题 第2集" implies
// season 1. Returns false when neither matches.
func ParseFileName(name string) (ParsedFileName, bool) {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".mp4")
	name = strings.TrimSuffix(name, ".mkv")

	if m := fileSxxExxRe.FindStringSubmatch(name); m != nil {
		return ParsedFileName{
			Title:   cleanFileTitle(m[1]),
			Season:  cnnum.Parse(m[2]),
			Episode: cnnum.Parse(m[3]),
		}, true
	}
	if m := fileCnRe.FindStringSubmatch(name); m != nil {
		season := cnnum.Parse(m[2])
		if season == 0 {
			return ParsedFileName{}, false
		}
		return ParsedFileName{
			Title:   cleanFileTitle(m[1]),
			Season:  season,
			Episode: cnnum.Parse(m[3]),
		}, true
	}
	if m := fileEpOnlyRe.FindStringSubmatch(name); m != nil {
		return ParsedFileName{Title: cleanFileTitle(m[1]), Season: 1, Episode: cnnum.Parse(m[2])}, true
	}
	return ParsedFileName{}, false
}

func cleanFileTitle(s string) string {
	s = strings.NewReplacer(".", " ", "_", " ").Replace(s)
	return strings.TrimSpace(s)
}
