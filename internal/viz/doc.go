// Package viz renders a running particle simulation in the terminal.
//
// [Canvas] is a Braille pixel canvas, two by four dots per cell, and
// [DrawScene] projects an engine onto it. [Model] is a Bubble Tea program
// that feeds wall-clock frame times through a fixed step accumulator;
// [Watcher] is the non-interactive equivalent used as a run observer.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	N     - Single frame when paused
//	R     - Rebuild the simulation
//	G     - Flip gravity
//	+/-   - Change speed
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
