// Package filters provides the template functions available to layouts: date and
// text formatting, collection helpers and the image shortcodes.
package filters
