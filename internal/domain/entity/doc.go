// Package entity holds the persisted domain types of the platform.
package entity
