package features

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	authorTags     = set("a", "span", "div", "p")
	authorKeywords = []string{"author", "user", "username", "profile", "byline", "handle", "nickname"}

	avatarTags     = set("img", "div", "span", "svg")
	avatarKeywords = []string{"avatar", "userpic", "profile-pic", "profilepic", "user-icon", "userphoto", "user-photo"}

	timestampAttrs = set("datetime", "data-time", "data-timestamp", "data-created", "data-epoch")

	actionTags   = set("button", "a", "span", "div", "svg", "img")
	actionTokens = []string{
		"reply", "respond", "answer", "quote",
		"like", "upvote", "heart", "dislike", "downvote",
		"share", "permalink", "copylink", "copy link",
		"report", "flag", "block", "mute",
		"edit", "pin", "pinned",
	}

	relatedKeywords = []string{
		"comment", "comments", "commenter", "commenting",
		"comment-body", "comment_body", "commenttext", "comment-text",
		"commentlist", "comment-list", "commentthread", "comment-thread",
		"cmt", "cmnt",
		"reply", "replies", "respond", "response", "responses",
		"replyto", "reply-to", "in-reply-to",
		"discussion", "discussions", "thread", "threads", "conversation", "conversations", "conv",
		"message", "messages", "msg", "msgs", "post", "posts", "posting", "posted",
		"feedback", "review", "reviews", "rating", "ratings",
		"chat", "chats", "forum", "forums", "topic", "topics",
		"opinion", "opinions", "reaction", "reactions", "remark", "remarks", "note", "notes",
		"annotation", "annotations", "inline-comment", "inlinecomments",
	}

	relativeAge   = regexp.MustCompile(`(?i)\b(\d+\s*(sec|second|min|minute|hour|hr|day|week|month|year)s?\s*ago|just now|today|yesterday|\d+\s*[smhdwy]\b)`)
	absoluteDate  = regexp.MustCompile(`\b20\d{2}[-/]\d{1,2}[-/]\d{1,2}\b`)
	monthNameDate = regexp.MustCompile(`(?i)\b(?:` + month + `\s+\d{1,2},?(?:\s+20\d{2})?|\d{1,2}\s+` + month + `,?(?:\s+20\d{2})?)\b`)
	mentionOrTag  = regexp.MustCompile(`[@#]\w+`)
	urlLike       = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)
	nonWord       = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
)

const month = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// pictographic approximates Extended_Pictographic, which RE2 lacks.
var pictographic = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00a9, Hi: 0x00a9, Stride: 1},
		{Lo: 0x00ae, Hi: 0x00ae, Stride: 1},
		{Lo: 0x203c, Hi: 0x203c, Stride: 1},
		{Lo: 0x2049, Hi: 0x2049, Stride: 1},
		{Lo: 0x2122, Hi: 0x2122, Stride: 1},
		{Lo: 0x2139, Hi: 0x2139, Stride: 1},
		{Lo: 0x2194, Hi: 0x2199, Stride: 1},
		{Lo: 0x2300, Hi: 0x23ff, Stride: 1},
		{Lo: 0x25aa, Hi: 0x25fe, Stride: 1},
		{Lo: 0x2600, Hi: 0x27bf, Stride: 1},
		{Lo: 0x2934, Hi: 0x2935, Stride: 1},
		{Lo: 0x2b05, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0x303d, Hi: 0x303d, Stride: 1},
		{Lo: 0x3297, Hi: 0x3297, Stride: 1},
		{Lo: 0x3299, Hi: 0x3299, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x1f000, Hi: 0x1faff, Stride: 1},
	},
	LatinOffset: 2,
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// element is the local view of a node: tag, attributes, direct text.
type element struct {
	tag   string
	text  string
	attrs []html.Attribute
}

func (e element) attr(key string) (string, bool) {
	for _, a := range e.attrs {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

func (e element) attrVal(key string) string {
	v, _ := e.attr(key)
	return v
}

func (e element) has(key string) bool {
	_, ok := e.attr(key)
	return ok
}

func (e element) blob(keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.attrVal(k))
	}
	return normalize(strings.Join(parts, " "))
}

func (e element) vector() Vector {
	var v Vector
	e.textStats(&v)
	v.HasRelatedKeyword = e.related()
	v.MicroActions = e.microActions()
	v.HasMicroAction = len(v.MicroActions) > 0
	v.HasAuthor = e.author()
	v.HasAvatar = e.avatar()
	v.HasTime = e.timestamp()
	return v
}

func (e element) textStats(v *Vector) {
	text := strings.Join(strings.Fields(e.text), " ")
	if text == "" {
		return
	}
	v.WordCount = len(strings.Fields(text))
	v.HasMentionOrHashtag = mentionOrTag.MatchString(text)
	v.QuestionMarks = strings.Count(text, "?")
	for _, r := range text {
		if unicode.Is(pictographic, r) {
			v.EmojiCount++
		}
	}

	total := utf8.RuneCountInString(text)
	linkLen := 0
	if e.tag == "a" && e.has("href") {
		v.HasLink = true
		linkLen = total
	} else if ms := urlLike.FindAllString(text, -1); len(ms) > 0 {
		v.HasLink = true
		for _, m := range ms {
			linkLen += utf8.RuneCountInString(m)
		}
	}
	v.LinkDensity = float64(linkLen) / float64(total)
}

func matchesRelated(s string) bool {
	s = normalize(s)
	if s == "" {
		return false
	}
	for _, kw := range relatedKeywords {
		if strings.Contains(s, kw) {
			return true
		}
		if len(s) >= 5 && strings.Contains(kw, s) {
			return true
		}
	}
	return false
}

func (e element) related() bool {
	if t := normalize(e.text); t != "" && len(t) <= 60 && matchesRelated(t) {
		return true
	}
	for _, a := range e.attrs {
		if matchesRelated(a.Key) || matchesRelated(a.Val) {
			return true
		}
	}
	return false
}

func (e element) clickable() bool {
	switch {
	case e.tag == "button":
		return true
	case e.tag == "a" && e.has("href"):
		return true
	}
	switch normalize(e.attrVal("role")) {
	case "button", "link", "menuitem":
		return true
	}
	for _, k := range []string{"onclick", "aria-label", "title", "aria-pressed", "aria-expanded"} {
		if e.has(k) {
			return true
		}
	}
	return false
}

func tokenInLabel(s string) string {
	s = nonWord.ReplaceAllString(normalize(s), " ")
	words := set(strings.Fields(s)...)
	for _, t := range actionTokens {
		if words[t] {
			return t
		}
	}
	if strings.Contains(s, "copy link") {
		return "copy link"
	}
	return ""
}

func tokenInAttr(s string) string {
	s = normalize(s)
	if s == "" {
		return ""
	}
	for _, t := range actionTokens {
		if strings.Contains(s, t) {
			return t
		}
	}
	return ""
}

// microActions returns the distinct action tokens of a clickable element.
func (e element) microActions() []string {
	if !actionTags[e.tag] || !e.clickable() {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	add(tokenInLabel(e.attrVal("aria-label") + " " + e.attrVal("title") + " " + e.attrVal("alt")))
	if t := normalize(e.text); t != "" && len(t) <= 40 {
		add(tokenInLabel(t))
	}
	for _, a := range e.attrs {
		if t := tokenInAttr(a.Key); t != "" {
			add(t)
			continue
		}
		add(tokenInAttr(a.Val))
	}
	return out
}

func containsAny(s string, kws []string) bool {
	for _, kw := range kws {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func (e element) author() bool {
	if !authorTags[e.tag] {
		return false
	}
	if !containsAny(e.blob("class", "id", "rel", "itemprop", "data-user", "data-username", "data-author"), authorKeywords) {
		return false
	}
	t := normalize(e.text)
	if len(t) < 2 || len(t) > 40 {
		return false
	}
	for _, kw := range authorKeywords {
		if t == kw {
			return false
		}
	}
	return true
}

func (e element) avatar() bool {
	if !avatarTags[e.tag] {
		return false
	}
	if !containsAny(e.blob("class", "id", "alt", "title", "aria-label", "src"), avatarKeywords) {
		return false
	}
	if e.tag == "img" {
		w, _ := strconv.Atoi(e.attrVal("width"))
		h, _ := strconv.Atoi(e.attrVal("height"))
		return !(w > 0 && h > 0 && (w > 250 || h > 250))
	}
	return true
}

func (e element) timestamp() bool {
	if e.tag == "time" {
		return true
	}
	for _, a := range e.attrs {
		if timestampAttrs[strings.ToLower(a.Key)] {
			return true
		}
	}
	t := normalize(e.text)
	if t == "" || len(t) > 80 {
		return false
	}
	return relativeAge.MatchString(t) || absoluteDate.MatchString(t) || monthNameDate.MatchString(t)
}
