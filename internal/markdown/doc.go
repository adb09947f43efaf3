// Package markdown renders page bodies to HTML with goldmark and provides small
// analysis helpers over the result (link extraction, table of contents).
package markdown
