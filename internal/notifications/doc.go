// Package notifications pushes job lifecycle events to an ntfy topic.
//
// Notification failures are logged and swallowed by callers; a push outage
// never affects job processing.
package notifications
