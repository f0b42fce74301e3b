// Package progress carries engine progress events to optional observers.
//
// Observers are a side channel: the engine emits Start, Item, and Complete
// events for each phase and never reads anything back, so attaching or
// omitting an observer cannot change a pass's result.
package progress
