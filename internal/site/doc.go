// Package site builds the static site: it runs lifecycle hooks, loads tokens, data
// and content, evaluates collections, renders pages through html/template layouts,
// substitutes placeholders, copies passthrough files and records the result in a
// Report.
package site
