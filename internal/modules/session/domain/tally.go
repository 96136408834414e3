package domain

// SyncTally counts what one sync batch did to the store.
type SyncTally struct {
	Inserted int
	Updated  int
	Skipped  int
}

func (t SyncTally) Total() int {
	return t.Inserted + t.Updated + t.Skipped
}
