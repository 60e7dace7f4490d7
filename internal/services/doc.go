// Package services defines the shared error taxonomy used across the
// processing pipelines and the helpers that attach step context to
// failures before they cross an item boundary.
package services
