// Package library holds the reference atomic models used by the devsim CLI and
// the kernel's end-to-end tests. The set of kinds is closed; New dispatches on
// the kind name.
//
// All models exchange int values.
//   - generator: emits 0, 1, 2, ... every period, optionally jittered and limited
//   - queue: single-server FIFO with a fixed service time
//   - sink: passive collector of everything it receives
//   - spawner: grows and shrinks its parent at run time through change requests
package library
