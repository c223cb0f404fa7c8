package domain

// Diff returns the messages appended to oldConv to obtain newConv.
// Conversations are append-only, so the delta is always a suffix.
// It returns nil when nothing was appended or when oldConv is not a prefix of
// newConv (a rewrite, which a well-behaved run never produces).
func Diff(oldConv, newConv Conversation) []Message {
	oldLen := oldConv.Len()
	newLen := newConv.Len()

	if newLen <= oldLen {
		return nil
	}

	// Verify prefix matches
	for i := 0; i < oldLen; i++ {
		if oldConv.At(i) != newConv.At(i) {
			return nil
		}
	}

	delta := make([]Message, 0, newLen-oldLen)
	for i := oldLen; i < newLen; i++ {
		delta = append(delta, newConv.At(i))
	}
	return delta
}
