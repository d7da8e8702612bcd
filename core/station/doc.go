// Package station implements the swap controller of a battery management hub
// (BMH): the AGV's depleting battery, the hub's charging battery, the swap
// sequences, fault injection and the operator recovery protocol.
//
// The Controller is the only mutator of station state. Time is supplied by a
// timeline.Timeline, output goes to a Display and randomness comes from an
// injected RandomSource, so every sequence can be replayed deterministically.
package station
