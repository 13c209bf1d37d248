package provider

import (
	"regexp"
	"strings"

	"feedient/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

var (
	linkRegex    = regexp.MustCompile(`(?i)\b(https?)://[-A-Z0-9+&@#/%?=~_|!:,.;]*[-A-Z0-9+&@#/%=~_|]`)
	hashtagRegex = regexp.MustCompile(`\S*#(?:\[[^\]]+\]|\S+)`)
)

// FindLinks returns the http(s) URLs in text in order of appearance.
func FindLinks(text string) []string {
	return linkRegex.FindAllString(text, -1)
}

// FindHashtags returns the hashtag tokens in text, including the '#'.
func FindHashtags(text string) []string {
	return hashtagRegex.FindAllString(text, -1)
}

// HashtagName trims a token from FindHashtags down to the tag name.
func HashtagName(token string) string {
	token = strings.TrimSpace(token)
	if i := strings.IndexByte(token, '#'); i >= 0 {
		return token[i+1:]
	}
	return token
}

// AppendTextLinks adds every URL in text to e that is not already present.
func AppendTextLinks(e *entity.Entities, text string) {
	for _, l := range FindLinks(text) {
		if hasLink(e.Links, l) {
			continue
		}
		e.Links = append(e.Links, entity.Link{DisplayURL: l, ExpandedURL: l})
	}
}

// AppendTextHashtags adds every hashtag in text to e, linking each under base.
func AppendTextHashtags(e *entity.Entities, text, base string) {
	for _, tok := range FindHashtags(text) {
		name := HashtagName(tok)
		e.Hashtags = append(e.Hashtags, entity.Hashtag{Name: name, Link: base + name})
	}
}

func hasLink(links []entity.Link, u string) bool {
	for _, l := range links {
		if l.ExpandedURL == u {
			return true
		}
	}
	return false
}

// StripHTML returns the text content of an HTML fragment with <br> and block
// boundaries kept as newlines. Input that is not HTML is returned trimmed.
func StripHTML(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.TrimSpace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("script, style").Remove()

	return strings.TrimSpace(doc.Text())
}

// FirstImage returns the src of the first <img> in an HTML fragment.
func FirstImage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img").First().Attr("src")
	return src
}
