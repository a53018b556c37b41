// Package interpreter executes payload scripts.
//
// A Runner reads a payload line by line from an fs.FS, classifies each line
// with the script package and performs it against a Keyboard. All runs that
// share a Runner share one State: the default delay, the last executed line
// used by REPEAT, and the LED flag. Nested IMPORTs run on the same State, so a
// DEFAULT_DELAY set inside an imported payload stays in effect for the
// importing payload.
//
// The runner never returns early because of a bad line. Unknown key names,
// malformed arguments and keyboard errors are logged and the next line runs.
// Only a payload that cannot be opened or read, an import nested past the
// configured depth, or a cancelled context ends a run.
package interpreter
