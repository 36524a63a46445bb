// Package testinfra starts throwaway service containers for integration tests.
// Everything except this file is behind the integration build tag:
//
//	go test -tags integration ./...
package testinfra
