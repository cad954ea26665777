// Package inputrecord implements the E9K_INPUT_V1 record/playback format:
// either recording live input events to disk, or replaying them from disk,
// never both. Playback parses the whole file up front and delivers events
// as the frame counter reaches them; a UI-key event additionally drives the
// profiler checkpoint controls (toggle, reset, dump) during a replay.
package inputrecord
