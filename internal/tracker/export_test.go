package tracker

// WaitPollers blocks until all the poll loops of t have returned.
func WaitPollers(t *Tracker) {
	t.pollers.Wait()
}
