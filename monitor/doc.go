// Package monitor implements the livestream lifecycle tracker and the live
// chat polling engine.
//
// A Monitor polls the broadcast list on a fixed cadence and classifies each
// snapshot into lifecycle transitions (start, status change, end). When a
// broadcast goes live with a chat id, a chat session is started: the session
// verifies the chat is reachable, then polls pages of messages on a shorter
// interval, feeding every message to the display sink and eligible batches to
// the response collaborator. Outgoing replies are spaced by a send cooldown.
//
// The lifecycle loop and each chat session run as separate cooperative tasks;
// a tick body always runs to completion before that task's next tick fires.
// Session state (pagination token included) is owned by the session goroutine,
// so a late completion from a stopped session can never leak into a new one.
package monitor
