package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/enums"
)

// Member is one production membership entry: who, with which role, since when.
type Member struct {
	User    uuid.UUID        `json:"user"`
	Role    enums.MemberRole `json:"role"`
	AddedAt time.Time        `json:"added_at"`
}

// MemberList maps the productions.members jsonb column.
//
// Historically the column held two shapes side by side: bare user-id strings
// and tagged objects whose user reference could live under "user", "_id" or
// "id" (sometimes nested one level). Ingestion accepts all of them;
// serialization always emits the canonical tagged shape.
type MemberList []Member

type legacyMember struct {
	User json.RawMessage `json:"user"`
	ID   json.RawMessage `json:"_id"`
	Alt  json.RawMessage `json:"id"`
	Role string          `json:"role"`
	At   *time.Time      `json:"added_at"`
}

// UnmarshalJSON ingests a single member entry in any of the legacy shapes.
func (m *Member) UnmarshalJSON(data []byte) error {
	// Bare id string.
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("member: parse bare id %q: %w", raw, err)
		}
		*m = Member{User: id, Role: enums.MemberRoleEditor}
		return nil
	}

	var legacy legacyMember
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("member: unrecognized entry shape: %w", err)
	}

	id, ok := extractID(legacy.User)
	if !ok {
		id, ok = extractID(legacy.ID)
	}
	if !ok {
		id, ok = extractID(legacy.Alt)
	}
	if !ok {
		return fmt.Errorf("member: no user reference in entry %s", string(data))
	}

	member := Member{User: id, Role: enums.ParseMemberRole(legacy.Role)}
	if legacy.At != nil {
		member.AddedAt = *legacy.At
	}
	*m = member
	return nil
}

// extractID pulls a uuid out of a raw reference: a plain string or an object
// carrying the id under one of the known keys.
func extractID(raw json.RawMessage) (uuid.UUID, bool) {
	if len(raw) == 0 {
		return uuid.Nil, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := uuid.Parse(s); err == nil {
			return id, true
		}
		return uuid.Nil, false
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return uuid.Nil, false
	}
	for _, key := range []string{"_id", "id", "user"} {
		if inner, ok := nested[key]; ok {
			if id, found := extractID(inner); found {
				return id, true
			}
		}
	}
	return uuid.Nil, false
}

func (l *MemberList) Scan(src any) error {
	if src == nil {
		*l = MemberList{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("MemberList: unsupported Scan type %T", src)
	}

	if len(data) == 0 {
		*l = MemberList{}
		return nil
	}

	var parsed []Member
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("MemberList: decode: %w", err)
	}
	*l = MemberList(parsed).Normalize()
	return nil
}

func (l MemberList) Value() (driver.Value, error) {
	canonical := l.Normalize()
	if canonical == nil {
		canonical = MemberList{}
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("MemberList: encode: %w", err)
	}
	return string(data), nil
}

// Normalize deduplicates by user id; for duplicates the last role wins, the
// same rule the legacy writer applied.
func (l MemberList) Normalize() MemberList {
	if l == nil {
		return nil
	}
	index := make(map[uuid.UUID]int, len(l))
	out := make(MemberList, 0, len(l))
	for _, m := range l {
		if m.User == uuid.Nil {
			continue
		}
		if !m.Role.IsValid() {
			m.Role = enums.MemberRoleEditor
		}
		if at, ok := index[m.User]; ok {
			out[at].Role = m.Role
			continue
		}
		index[m.User] = len(out)
		out = append(out, m)
	}
	return out
}

// Find returns the entry for user, if present.
func (l MemberList) Find(user uuid.UUID) (Member, bool) {
	for _, m := range l {
		if m.User == user {
			return m, true
		}
	}
	return Member{}, false
}

// Contains reports whether user appears in the list.
func (l MemberList) Contains(user uuid.UUID) bool {
	_, ok := l.Find(user)
	return ok
}

// Add returns the list with the member appended (no-op when already present).
func (l MemberList) Add(user uuid.UUID, role enums.MemberRole, at time.Time) MemberList {
	if l.Contains(user) {
		return l
	}
	return append(append(MemberList(nil), l...), Member{User: user, Role: role, AddedAt: at})
}

// Upsert returns the list with user present at role, replacing the role of
// an existing entry. AddedAt is preserved for existing entries.
func (l MemberList) Upsert(user uuid.UUID, role enums.MemberRole, at time.Time) MemberList {
	out := make(MemberList, 0, len(l)+1)
	found := false
	for _, m := range l {
		if m.User == user {
			m.Role = role
			found = true
		}
		out = append(out, m)
	}
	if !found {
		out = append(out, Member{User: user, Role: role, AddedAt: at})
	}
	return out
}

// Remove returns the list without user and whether anything was dropped.
func (l MemberList) Remove(user uuid.UUID) (MemberList, bool) {
	out := make(MemberList, 0, len(l))
	removed := false
	for _, m := range l {
		if m.User == user {
			removed = true
			continue
		}
		out = append(out, m)
	}
	return out, removed
}
