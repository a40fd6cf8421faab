package session

// BlockListCapacity bounds how many rejected utterances a session remembers.
const BlockListCapacity = 20

// BlockList is a bounded, deduplicated memory of user utterances that must
// never be resent to the model. Oldest entries are evicted first when an
// insert exceeds capacity. Re-adding a known value is a no-op.
type BlockList struct {
	entries []string
}

func (b *BlockList) Add(content string) {
	if b.Contains(content) {
		return
	}
	b.entries = append(b.entries, content)
	if len(b.entries) > BlockListCapacity {
		b.entries = b.entries[len(b.entries)-BlockListCapacity:]
	}
}

func (b *BlockList) Contains(content string) bool {
	for _, entry := range b.entries {
		if entry == content {
			return true
		}
	}
	return false
}

// Values returns the entries oldest first.
func (b *BlockList) Values() []string {
	out := make([]string, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *BlockList) Len() int {
	return len(b.entries)
}
