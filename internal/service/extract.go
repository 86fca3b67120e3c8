package service

import (
	"regexp"
	"strings"
)

var (
	mentionRegex = regexp.MustCompile(`@(\w+)`)
	hashtagRegex = regexp.MustCompile(`#(\w+)`)
)

// ExtractMentions returns the deduplicated, lowercased usernames mentioned
// in text, in order of first appearance.
func ExtractMentions(text string) []string {
	return extractTokens(mentionRegex, text)
}

// ExtractHashtags returns the deduplicated, lowercased hashtags in text,
// in order of first appearance.
func ExtractHashtags(text string) []string {
	return extractTokens(hashtagRegex, text)
}

func extractTokens(re *regexp.Regexp, text string) []string {
	matches := re.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		token := strings.ToLower(m[1])
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}
	return tokens
}
