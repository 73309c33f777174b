/*
Package ports defines the driven ports (interfaces) of the navigation engine.

These interfaces decouple the resolution and execution logic from the live session,
allowing the engine to run against a real browser, a fake console in tests, or nothing at
all when only plans are needed.

# Key Interfaces

  - Waiter: bounded polling used to verify arrival at a destination.
  - Recoverer: brings the session back to a known base state after a failed step.
  - BaseState: makes sure the global base state (browser open, logged in) exists.
  - DistributedLocker: serializes navigations on a session shared by several workers.
*/
package ports
