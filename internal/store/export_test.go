package store

// SetMaxBatch changes the IN list size and returns a function restoring it
func SetMaxBatch(n int) func() {
	previous := maxBatch
	maxBatch = n
	return func() { maxBatch = previous }
}
