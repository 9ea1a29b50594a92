package comment

import (
	"testing"

	"barrage/models"
)

func TestTencentColor(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"", models.DefaultColor},
		{"not json", models.DefaultColor},
		{`{"color":"ff0000"}`, 0xff0000},
		{`{"color":"#00ff00"}`, 0x00ff00},
		{`{"color":"ffffff","gradient_colors":["0000ff","ff0000"]}`, 0x0000ff},
	}
	for _, tt := range tests {
		if got := tencentColor(tt.style); got != tt.want {
			t.Errorf("tencentColor(%q) = %d, want %d", tt.style, got, tt.want)
		}
	}
}

func TestYoukuStyle(t *testing.T) {
	tests := []struct {
		propertis string
		color     int
		mode      int
	}{
		{"", models.DefaultColor, models.ModeScroll},
		{"garbage", models.DefaultColor, models.ModeScroll},
		{`{"color":255,"pos":0}`, 255, models.ModeScroll},
		{`{"color":255,"pos":1}`, 255, models.ModeTop},
		{`{"color":255,"pos":2}`, 255, models.ModeBottom},
		{`{"pos":1}`, models.DefaultColor, models.ModeTop},
	}
	for _, tt := range tests {
		color, mode := youkuStyle(tt.propertis)
		if color != tt.color || mode != tt.mode {
			t.Errorf("youkuStyle(%q) = (%d, %d), want (%d, %d)", tt.propertis, color, mode, tt.color, tt.mode)
		}
	}
}

func TestParseIqiyiSegment(t *testing.T) {
	xml := []byte(`<danmu><data><entry><list><bulletInfo>` +
		`<contentId>1</contentId><content>first</content><showTime>12</showTime><color>ff0000</color>` +
		`</bulletInfo><bulletInfo>` +
		`<contentId>2</contentId><content>second</content><showTime>340</showTime>` +
		`</bulletInfo></list></entry></data></danmu>`)
	got := parseIqiyiSegment(xml)
	if len(got) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(got))
	}
	if got[0].TimePoint != 12 || got[0].Color != 0xff0000 || got[0].Content != "first" {
		t.Errorf("first decoded wrong: %+v", got[0])
	}
	if got[1].Color != models.DefaultColor {
		t.Errorf("missing color should default to white: %+v", got[1])
	}
}

func TestParseClockMs(t *testing.T) {
	tests := []struct {
		clock string
		want  int64
	}{
		{"00:45:30", 2730000},
		{"45:30", 2730000},
		{"01:00:00", 3600000},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := parseClockMs(tt.clock); got != tt.want {
			t.Errorf("parseClockMs(%q) = %d, want %d", tt.clock, got, tt.want)
		}
	}
}
