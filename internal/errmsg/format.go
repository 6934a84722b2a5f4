// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library operations
	OpLibraryOpen   Op = "open library"
	OpLibraryLoad   Op = "load library"
	OpLibrarySearch Op = "search library"
	OpRecentLoad    Op = "load recent tracks"

	// Import operations
	OpImportFiles Op = "import files"
	OpImportFile  Op = "read file"
	OpImportTags  Op = "read file tags"
	OpImportWatch Op = "watch import folder"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackToggle Op = "toggle playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackNext   Op = "skip to next track"
	OpPlaybackPrev   Op = "skip to previous track"

	// Radio
	OpRadioConnect Op = "connect to radio"

	// Artwork
	OpArtworkLoad Op = "load artwork"

	// Initialization
	OpInitialize Op = "initialize application"
)

// User-facing library outcome messages.
const (
	LibraryEmpty    = "Your library is empty. Add some music to get started."
	NoResults       = "No results found."
	SearchPrompt    = "Type at least 2 characters to search."
	DefaultTitle    = "Your Library"
	RecentTitle     = "Recently added"
	SearchTitle     = "Search"
	NothingPlaying  = "Nothing playing"
	VariousArtists  = "Various Artists"
	TrackLoadFailed = "Could not load this track"
)

// User-facing radio failure messages, one per failure cause.
const (
	RadioBlocked     = "Playback was blocked by the audio output"
	RadioUnsupported = "This station's audio format is not supported"
	RadioNetwork     = "Network error: could not reach the station"
	RadioTimeout     = "Connection timed out: the station did not respond"
	RadioUnavailable = "Stream unavailable: the station URL may be wrong"
	RadioUnknown     = "Could not connect to the radio"
	RadioOffline     = "Radio requires an internet connection"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// NoResultsFor is the search message shown when term matches nothing.
func NoResultsFor(term string) string {
	return fmt.Sprintf("No results found for %q.", term)
}
