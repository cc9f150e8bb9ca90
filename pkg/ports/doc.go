/*
Package ports defines the driven ports (interfaces) for the Sapling engine.

These interfaces decouple the core logic from external implementations,
allowing the engine to work with various backing file stores, reporters and
lockers.

# Key Interfaces

  - Host: Responsible for the persistent file store the commit phase writes
    to and the tree reads through.
  - Reporter: Receives the finite, finalization-ordered event sequence of a
    dry run.
  - Locker: Provides distributed locking so concurrent invocations against
    the same store can be serialized by the caller.
*/
package ports
