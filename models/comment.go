package models

// Platform identifies which upstream a comment client talks to.
type Platform string

const (
	PlatformBilibili Platform = "bilibili"
	PlatformIqiyi    Platform = "iqiyi"
	PlatformTencent  Platform = "tencent"
	PlatformMango    Platform = "mango"
	PlatformYouku    Platform = "youku"
	PlatformRenren   Platform = "renren"
	PlatformHanjuTV  Platform = "hanjutv"
)

// Comment is the canonical danmaku record served to clients.
// P is the attribute string "offset(2dp),mode,color,[platform]"; the exact
// field layout is consumed by dandanplay-compatible players, so it is
// preserved verbatim once produced.
type Comment struct {
	P   string `json:"p"`
	M   string `json:"m"`
	CID int    `json:"cid"`
}

// RawComment is the pre-normalization shape produced by protocol clients.
// Upstreams have shipped three historical formats and a single response can
// mix them, so the normalizer branches per record:
//   - Attr/Text: an XML-attribute style record ("p" string + body)
//   - TimePoint/CT/Color/Content: the classic object format (seconds)
//   - Progress/Mode set (HasProgress): the newer format with millisecond progress
type RawComment struct {
	Attr string
	Text string

	TimePoint float64
	CT        int
	Size      int
	Color     int
	Content   string

	Progress    int64
	Mode        int
	HasProgress bool
}

// DisplayModes as encoded in the attribute string: 1-3 scrolling, 4 bottom,
// 5 top. Upstream-specific codes are mapped by each client before
// normalization.
const (
	ModeScroll = 1
	ModeBottom = 4
	ModeTop    = 5
)

// DefaultColor is white, used whenever an upstream omits or mangles color.
const DefaultColor = 16777215
