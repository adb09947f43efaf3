// Package hooks runs the named lifecycle steps around a build. Steps in a phase run
// one after another and the first failure stops the phase.
package hooks
