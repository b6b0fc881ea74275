package openfin

// NewFakeDesktop exposes the in-memory runtime to external tests.
func NewFakeDesktop() Desktop { return newFakeDesktop() }
