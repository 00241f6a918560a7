// CLAUDE:SUMMARY Per-node feature vectors (author, avatar, timestamp, micro-actions, keywords, text stats) for presentation.
// Package features scores a single element on the cues that usually mark a
// user-generated entry: an avatar, an author name, a timestamp, clickable
// micro-actions, comment-ish keywords and some text statistics.
//
// Detection is strictly local: only the element's own attributes and its
// direct text nodes are looked at, never its descendants. The repeat engine
// never reads these vectors; they colour the rendered graph.
package features

import (
	"github.com/hazyhaar/domcore/domtree"
)

// WordSlot is the word count at which a node earns the text slot.
const WordSlot = 30

// MaxCount is the upper bound of Vector.Count.
const MaxCount = 10

// Vector is the feature record of one element.
type Vector struct {
	HasAvatar           bool     `json:"has_avatar,omitempty"`
	HasAuthor           bool     `json:"has_author,omitempty"`
	HasTime             bool     `json:"has_time,omitempty"`
	HasMicroAction      bool     `json:"has_microaction,omitempty"`
	MicroActions        []string `json:"microactions,omitempty"`
	HasRelatedKeyword   bool     `json:"has_related_keyword,omitempty"`
	HasLink             bool     `json:"has_link,omitempty"`
	HasMentionOrHashtag bool     `json:"has_mention_or_hashtag,omitempty"`
	LinkDensity         float64  `json:"link_density,omitempty"`
	WordCount           int      `json:"word_count,omitempty"`
	QuestionMarks       int      `json:"question_marks,omitempty"`
	EmojiCount          int      `json:"emoji_count,omitempty"`
}

// LinkWithMention reports a link next to an @mention or #hashtag.
func (v Vector) LinkWithMention() bool { return v.HasLink && v.HasMentionOrHashtag }

// EmojiOnly reports emoji without any word.
func (v Vector) EmojiOnly() bool { return v.EmojiCount > 0 && v.WordCount == 0 }

// EmojiMixed reports emoji among words.
func (v Vector) EmojiMixed() bool { return v.EmojiCount > 0 && v.WordCount > 0 }

// Count returns how many of the ten feature slots are set, for colour ramps.
func (v Vector) Count() int {
	slots := []bool{
		v.HasAvatar,
		v.HasAuthor,
		v.HasTime,
		v.HasMicroAction,
		v.HasRelatedKeyword,
		v.LinkWithMention(),
		v.EmojiOnly(),
		v.EmojiMixed(),
		v.QuestionMarks > 0,
		v.WordCount >= WordSlot,
	}
	n := 0
	for _, s := range slots {
		if s {
			n++
		}
	}
	return n
}

// Score is the weighted score: one point per boolean cue, half a point for
// a question and up to half a point for text length.
func (v Vector) Score() float64 {
	s := 0.0
	for _, b := range []bool{v.HasAvatar, v.HasAuthor, v.HasTime, v.HasRelatedKeyword,
		v.HasMicroAction, v.LinkWithMention(), v.EmojiOnly(), v.EmojiMixed()} {
		if b {
			s++
		}
	}
	if v.QuestionMarks > 0 {
		s += 0.5
	}
	return s + min(1, float64(v.WordCount)/WordSlot)*0.5
}

// Compute scores one node. Unreadable nodes yield the zero Vector.
func Compute(d *domtree.Document, n domtree.NodeID) Vector {
	tag, ok := d.Tag(n)
	if !ok {
		return Vector{}
	}
	el := element{tag: tag, text: d.DirectText(n), attrs: d.Attrs(n)}
	return el.vector()
}

// Map scores every node of the document.
func Map(d *domtree.Document) map[domtree.NodeID]Vector {
	out := make(map[domtree.NodeID]Vector, d.Len())
	for i := range d.Len() {
		n := domtree.NodeID(i)
		out[n] = Compute(d, n)
	}
	return out
}
