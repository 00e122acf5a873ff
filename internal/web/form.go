package web

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// Content length bounds, counted in characters after trimming.
const (
	minContentLen = 5
	maxContentLen = 1000
)

// entryForm holds the raw create-request fields, extracted explicitly from
// the request body. Missing fields arrive as empty strings and are reported
// by validate.
type entryForm struct {
	Date    string
	Content string
}

// extractEntryForm pulls the form fields out of the request.
func extractEntryForm(r *http.Request) entryForm {
	_ = r.ParseForm()
	return entryForm{
		Date:    r.PostForm.Get("date"),
		Content: r.PostForm.Get("content"),
	}
}

// validate applies every rule independently and collects all violations
// rather than stopping at the first. The trimmed content is returned even
// when invalid so the form can redisplay what the user typed; it must only
// be persisted when errs is empty.
func (f entryForm) validate() (content string, errs []string) {
	if f.Date == "" {
		errs = append(errs, "date is required")
	} else if _, err := time.Parse("2006-01-02", f.Date); err != nil {
		errs = append(errs, "invalid date format")
	}

	content = strings.TrimSpace(f.Content)
	if f.Content == "" {
		errs = append(errs, "content is required")
	} else if n := utf8.RuneCountInString(content); n < minContentLen {
		errs = append(errs, "content too short")
	} else if n > maxContentLen {
		errs = append(errs, "content too long")
	}

	return content, errs
}
