// Package board abstracts the physical inputs and outputs of the device: the
// trigger button, the four payload selector switches, the optional
// programming-mode switch and the status indicator.
//
// Inputs report electrical level; switches are wired active-low with pull-ups,
// so a closed switch reads false. Use Asserted to get the logical state.
//
// Two boards are provided. GPIOBoard drives real pins through periph.io.
// SimBoard runs in a terminal through tcell: space presses the button, 1-4
// toggle the selector switches, p toggles programming mode and q quits.
package board
