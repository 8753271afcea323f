package bridge

import "errors"

var (
	// ErrProviderNotFound is wrapped with the requested name; the resulting
	// string is the wire-visible error, hence the capitalized message.
	ErrProviderNotFound = errors.New("Provider not found")

	ErrNoProviders    = errors.New("no capability modules could be loaded")
	ErrOptionNotFound = errors.New("option not found")
)
