package vault

// SetFreeBytes replaces the free-space probe for tests.
func (s *Syncer) SetFreeBytes(fn func(string) (uint64, error)) {
	s.freeBytes = fn
}
