// Package engine implements the sequential form state machine. A Session owns
// a cursor over a catalog's steps and an answer record with one entry per
// step. The cursor advances only when the current answer is non-blank, moves
// back freely, and the last step submits the whole record through a
// Submitter. Presentation code reads Session.View and calls the mutating
// methods; it never edits state directly.
package engine
