// Package ports defines the interfaces the proxy layer depends on.
// The proxy layer is written against these abstractions; the socket
// transport and the kind catalog implement them.
package ports
