// Package app is the storefront state container.
//
// An Application is created once per process with New, started with Start
// and torn down with Stop. It exclusively owns the session identifier, the
// signed-in user and bearer token, the cart snapshot and the recommendation
// list. Consumers receive the *Application explicitly and mutate state only
// through its methods; none of them talks to the API directly.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application wiring, lifecycle and operations
//	├── subscribe.go        # Snapshot listeners
//	├── store.go            # Token store selection
//	├── domain/             # Wire models (catalog, cart, user, payment, ...)
//	├── services/           # One service per piece of state
//	├── storage/            # Token store interface, memory, sqlite, redis
//	├── httpapi/            # In-memory reference API used by tests and dev-server
//	├── metrics/            # Prometheus collectors
//	├── system/             # Service lifecycle manager
//	└── views/              # Terminal components rendered from snapshots
//
// # Synchronization
//
// Cart mutations never patch local state. Every successful add, remove or
// quantity change is followed by a full fetch of the server cart, and a
// failed mutation leaves the previous snapshot in place. No lock is held
// across network calls, so concurrent mutations race and the last fetch
// wins. Logout clears the cart and recommendations; fetches that were in
// flight at that moment are discarded when they return.
//
// Tracking is fire-and-forget on a bounded pool. Recommendation loads and
// beacons degrade silently; auth and cart operations return an
// errors.Result instead of an error.
package app
