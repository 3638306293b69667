package identity

// Identity is the user id plus optional unit/team/brand scope that determines
// which events a connection receives. Scope fields hold the normalized
// comma-joined form; empty means omitted.
//
// Identity is a plain comparable value: change detection compares scope
// values, never object identity.
type Identity struct {
	UserID   string
	UnitIDs  string
	TeamIDs  string
	BrandIDs string
}

// Equal reports whether both identities carry the same user and scope values.
func (i Identity) Equal(o Identity) bool {
	return i == o
}

// FromUser builds an Identity from a raw console user object. Both key styles
// used by the console are accepted (unit_ids / unitIds / unitId, etc.).
// Returns ok=false when the object carries no user id (logged out).
func FromUser(raw map[string]any) (Identity, bool) {
	if raw == nil {
		return Identity{}, false
	}

	uid, ok := NormalizeScope(firstKey(raw, "id", "user_id", "userId"))
	if !ok {
		return Identity{}, false
	}

	id := Identity{UserID: uid}
	if s, ok := NormalizeScope(firstKey(raw, "unit_ids", "unitIds", "unitId")); ok {
		id.UnitIDs = s
	}
	if s, ok := NormalizeScope(firstKey(raw, "team_ids", "teamIds", "teamId")); ok {
		id.TeamIDs = s
	}
	if s, ok := NormalizeScope(firstKey(raw, "brand_ids", "brandIds", "brandId")); ok {
		id.BrandIDs = s
	}
	return id, true
}

// firstKey returns the value for the first key present in the map.
func firstKey(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}
