/*
Package domain contains the core domain models for the Sapling engine.

It defines the fundamental entities of the transformation workflow: staged
file Actions, merge strategies, deferred Tasks, and the events emitted while
a workflow executes. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Action: A staged file operation (create, overwrite, delete, rename).
  - MergeStrategy: Policy for reconciling a generated subtree with the tree
    it is merged into.
  - Task: A deferred, post-commit unit of work with dependencies on other
    tasks.
  - Event: A reporter notification describing one finalized action.
*/
package domain
