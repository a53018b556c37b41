// Package task runs the device's long-lived loops: the trigger monitor that
// turns button presses into payload runs, and the indicator animation.
//
// Tasks share a Scheduler that admits one task at a time. A task gives up its
// turn only in Handle.Yield or Handle.Sleep, so a payload run, which never
// yields, holds every other task off until it finishes.
package task
