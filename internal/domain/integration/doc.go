// Package integration defines the ports through which the variation editor
// talks to the remote store.
//
// Key concepts:
//   - ProductCatalog: reads products and their saved variations, writes variation batches
//   - ImageUploader: stores a variation image and returns its reference
//   - RemoteProduct: the read-only seed data a session is opened from
//
// Ports are declared here; adapters live in the infrastructure layer.
package integration
