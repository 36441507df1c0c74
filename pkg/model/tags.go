package model

// UnionTags merges tag sets in order, collapsing duplicate names. The first
// occurrence of a name wins, so inherited tags keep the position they were
// declared at.
func UnionTags(sets ...[]Tag) []Tag {
	var out []Tag
	seen := make(map[string]struct{})
	for _, set := range sets {
		for _, tag := range set {
			if _, ok := seen[tag.Name]; ok {
				continue
			}
			seen[tag.Name] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// TagNames returns the bare names of tags, in order.
func TagNames(tags []Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, tag := range tags {
		names[i] = tag.Name
	}
	return names
}

// HasTag reports whether the set contains a tag with the given name.
func HasTag(tags []Tag, name string) bool {
	for _, tag := range tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}
