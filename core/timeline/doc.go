// Package timeline schedules deferred and repeating actions for the station
// simulation.
//
// Two implementations are provided:
//   - Wall: real timers backed by the time package
//   - Virtual: a manually advanced clock that fires callbacks in time order,
//     used by tests and the scenario runner
package timeline
