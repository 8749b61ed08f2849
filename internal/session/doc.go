// Package session implements the per-conversation state machine that collects
// a video and a subtitle file, lets the user adjust encoding options through
// inline menus, and hands a settings snapshot to the transcode supervisor.
//
// Manager owns one worker goroutine per active session. Every event for a
// session is delivered to that worker's queue and handled one at a time in
// arrival order, so session state needs no locks. A started job runs on its
// own goroutine; when it ends it reports back by queueing a JobFinished event
// rather than touching session state directly. Distinct sessions never share
// state beyond their namespaced scratch directories.
package session
