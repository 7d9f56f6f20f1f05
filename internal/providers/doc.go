// Package providers wires the built-in providers into a registry keyed by
// name. The enabled names from configuration select which providers each
// open notebook receives, and in which order.
package providers
