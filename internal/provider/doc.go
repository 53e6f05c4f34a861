// Package provider defines the contract music sources implement and the
// ordered registry the jukebox builds from the configuration.
//
// Every provider sits behind its own read/write lock ([Shared]). Setup and
// Sync take the exclusive side; readers such as the HTTP frontend only need
// the title and state. [Registry.Setup] runs each provider's setup in
// registration order and isolates failures: a provider that cannot be set
// up is logged, reported and kept in the registry in the Failed state.
package provider
