/*
Package ports defines the driven ports (interfaces) of algoviz.

These interfaces decouple the runtime store from external implementations.

# Key Interfaces

  - TraceSink: Receives the checkpoints of finished or running runs for later inspection.
    Traces are export-only: nothing loads them back into a store.
*/
package ports
