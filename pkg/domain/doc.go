/*
Package domain contains the core data contract of the algoviz replay store.

It defines the entities exchanged between an instrumented algorithm, the store
that drives it and the hosts that render it. This package is kept pure and free
of I/O, following the same layering as the rest of the module.

# Key Entities

  - State: the working state an algorithm mutates between checkpoints.
  - Event / StoredEvent: a checkpoint notification, and the same plus a frozen copy of State.
  - Timeline: the append-only history of a run.
  - Snapshot: the immutable, pull-based view a host renders.
  - Manifest: the static descriptor of a visualizer.
*/
package domain
