package domain

// MergeStrategy governs how a generated subtree's actions reconcile against
// the actions already staged on the tree it is merged into. Strategies are a
// bit set so that individual conflict classes can be allowed independently.
type MergeStrategy uint8

const (
	// MergeDefault uses the strategy of the enclosing merge, or MergeError
	// at the top level.
	MergeDefault MergeStrategy = 0

	// MergeError rejects any per-path collision.
	MergeError MergeStrategy = 1 << 0

	// AllowOverwriteConflict accepts the incoming content when both trees
	// stage content for the same existing path.
	AllowOverwriteConflict MergeStrategy = 1 << 1

	// AllowCreationConflict accepts the incoming content when both trees
	// create the same path.
	AllowCreationConflict MergeStrategy = 1 << 2

	// AllowDeleteConflict accepts a delete of a path the receiving tree has
	// already deleted.
	AllowDeleteConflict MergeStrategy = 1 << 3

	// MergeOverwrite allows every conflict class; the incoming tree wins.
	MergeOverwrite = AllowOverwriteConflict | AllowCreationConflict | AllowDeleteConflict
)

// Allows reports whether the strategy permits the given conflict class.
func (s MergeStrategy) Allows(conflict MergeStrategy) bool {
	return s&conflict != 0
}

// String returns a human-readable name for the strategy.
func (s MergeStrategy) String() string {
	switch s {
	case MergeDefault:
		return "default"
	case MergeError:
		return "error"
	case MergeOverwrite:
		return "overwrite"
	}
	name := ""
	appendName := func(n string) {
		if name != "" {
			name += "+"
		}
		name += n
	}
	if s.Allows(AllowOverwriteConflict) {
		appendName("allow-overwrite-conflict")
	}
	if s.Allows(AllowCreationConflict) {
		appendName("allow-creation-conflict")
	}
	if s.Allows(AllowDeleteConflict) {
		appendName("allow-delete-conflict")
	}
	if name == "" {
		return "unknown"
	}
	return name
}
