// ABOUTME: File name and URL helpers for conversions
// ABOUTME: Sanitizes titles and extracts video identifiers for job labels
package convert

import (
	"errors"
	"regexp"
	"strings"
)

// DefaultBaseName is used when a title sanitizes to nothing
const DefaultBaseName = "audio"

// ErrInvalidURL is returned when a URL carries no recognizable video ID
var ErrInvalidURL = errors.New("invalid video URL")

var (
	videoIDPattern     = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)
	attachmentStripper = regexp.MustCompile(`[^\w\s]`)
)

// ExtractVideoID returns the 11 character ID from a watch, embed or short URL
func ExtractVideoID(url string) (string, error) {
	url = strings.TrimSpace(url)
	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return "", ErrInvalidURL
	}

	match := videoIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", ErrInvalidURL
	}
	return match[1], nil
}

// DemoFileName lowercases the title and replaces every character outside
// [a-z0-9] with an underscore
func DemoFileName(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	name := b.String()
	if name == "" {
		name = DefaultBaseName
	}
	return name + ".wav"
}

// AttachmentName drops everything but word characters and whitespace, for
// use in a Content-Disposition header
func AttachmentName(title string) string {
	name := strings.TrimSpace(attachmentStripper.ReplaceAllString(title, ""))
	if name == "" {
		name = DefaultBaseName
	}
	return name + ".wav"
}
