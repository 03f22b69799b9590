package expand

import "regexp"

// SegmentKind tags a span of document text.
type SegmentKind int

const (
	Prose SegmentKind = iota
	Fenced
)

func (k SegmentKind) String() string {
	if k == Fenced {
		return "fenced"
	}
	return "prose"
}

// Segment is a contiguous span of a document. Concatenating the Text of
// every segment returned by SplitFences reproduces the input exactly.
type Segment struct {
	Kind SegmentKind
	Text string
}

// fenceRe matches the shortest span between a ``` marker and the next one.
var fenceRe = regexp.MustCompile("(?s)```.*?```")

// SplitFences partitions text into prose and fenced segments in document
// order. A trailing unmatched ``` has nothing to pair with, so it and the
// text after it stay prose.
func SplitFences(text string) []Segment {
	var segs []Segment
	last := 0
	for _, loc := range fenceRe.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			segs = append(segs, Segment{Kind: Prose, Text: text[last:loc[0]]})
		}
		segs = append(segs, Segment{Kind: Fenced, Text: text[loc[0]:loc[1]]})
		last = loc[1]
	}
	if last < len(text) {
		segs = append(segs, Segment{Kind: Prose, Text: text[last:]})
	}
	return segs
}
