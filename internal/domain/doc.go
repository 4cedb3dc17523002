// Package domain holds the core model types, interaction events, and the
// interfaces the relay depends on. Adapters implement these interfaces;
// nothing in this package touches the network.
package domain
