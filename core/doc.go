// Package core contains the webhook engine's domain contracts, entities, and
// orchestration logic. Lower-level adapters must depend on this package; core
// must not depend on transport-specific or storage-specific adapters.
package core
