package search

import "testing"

func TestExtractSeason(t *testing.T) {
	tests := []struct {
		title  string
		base   string
		season int
	}{
		{"庆余年第二季", "庆余年", 2},
		{"庆余年 第2季", "庆余年", 2},
		{"风骚律师 第十一季", "风骚律师", 11},
		{"Breaking Bad Season 3", "Breaking Bad", 3},
		{"请回答1988", "请回答1988", 0},
	}
	for _, tt := range tests {
		base, season := ExtractSeason(tt.title)
		if base != tt.base || season != tt.season {
			t.Errorf("ExtractSeason(%q) = (%q, %d), want (%q, %d)", tt.title, base, season, tt.base, tt.season)
		}
	}
}

func TestMatchSeason(t *testing.T) {
	tests := []struct {
		title string
		want  int
		match bool
	}{
		{"庆余年第二季", 2, true},
		{"庆余年第二季", 1, false},
		{"爱情公寓 第两季", 2, true}, // colloquial 两
		{"爱情公寓 第两季", 1, false},
		{"庆余年", 1, true}, // bare title counts as season 1
		{"庆余年", 2, false},
		{"庆余年第三季", 0, true}, // no filter
	}
	for _, tt := range tests {
		if got := MatchSeason(tt.title, tt.want); got != tt.match {
			t.Errorf("MatchSeason(%q, %d) = %v, want %v", tt.title, tt.want, got, tt.match)
		}
	}
}

func TestParseFileName(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		season  int
		episode int
		ok      bool
	}{
		{"Breaking.Bad.S01E02.mkv", "Breaking Bad", 1, 2, true},
		{"庆余年 S02E05", "庆余年", 2, 5, true},
		{"庆余年 第二季 第5集", "庆余年", 2, 5, true},
		{"庆余年 第5集", "庆余年", 1, 5, true},
		{"random notes.txt", "", 0, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFileName(tt.name)
		if ok != tt.ok {
			t.Errorf("ParseFileName(%q) ok = %v, want %v", tt.name, ok, tt.ok)
			continue
		}
		if !ok {
			continue
		}
		if got.Title != tt.title || got.Season != tt.season || got.Episode != tt.episode {
			t.Errorf("ParseFileName(%q) = %+v, want {%q %d %d}", tt.name, got, tt.title, tt.season, tt.episode)
		}
	}
}
