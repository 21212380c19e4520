package compare

import "github.com/oneconcern/yap/pkg/model"

// Merge deep-merges b into a.
//
// When both values are trees, every key of b is merged recursively into a (keys missing
// in a start out as null). Otherwise b replaces a.
//
// Inputs are never mutated.
func Merge(a, b interface{}) interface{} {
	ta, okA := asTree(a)
	tb, okB := asTree(b)
	if !okA || !okB {
		return b
	}

	merged := make(model.Tree, len(ta)+len(tb))
	for k, v := range ta {
		merged[k] = v
	}
	for k, v := range tb {
		existing, found := merged[k]
		if !found {
			existing = nil
		}
		merged[k] = Merge(existing, v)
	}
	return merged
}

// MergeTrees deep-merges two trees
func MergeTrees(a, b model.Tree) model.Tree {
	merged, _ := asTree(Merge(a, b))
	return merged
}

func asTree(v interface{}) (model.Tree, bool) {
	switch t := v.(type) {
	case model.Tree:
		return t, t != nil
	case map[string]interface{}:
		return model.Tree(t), t != nil
	default:
		return nil, false
	}
}

// Changed tells if a diff result denotes some change.
//
// An explicit "changed" flag wins. Without it, any key beyond the hash equality field is a change.
func Changed(result model.Tree) bool {
	if changed, ok := result[changedKey].(bool); ok {
		return changed
	}
	for k := range result {
		if k != hashKey {
			return true
		}
	}
	return false
}
