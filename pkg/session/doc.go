/*
Package session serializes navigations on a live session.

A session (one browser, one console login) can only show one page at a time, so two
navigations on it must never interleave. Guard hands out one lock per session ID,
optionally backed by a DistributedLocker when several workers share a session, and lets
a navigation that is already holding the lock re-enter it (a custom prerequisite that
navigates elsewhere first).
*/
package session
