package index

import "github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/typesig"

// Role is the position in which a signature mentions a type. Roles are
// bit flags so filters can combine them.
type Role uint8

const (
	RoleInput Role = 1 << iota
	RoleOutput
	RoleBound

	RoleAny = RoleInput | RoleOutput | RoleBound
)

func (r Role) String() string {
	switch r {
	case RoleInput:
		return "input"
	case RoleOutput:
		return "output"
	case RoleBound:
		return "bound"
	case RoleAny:
		return "any"
	}
	return "mixed"
}

type Posting struct {
	Item int
	Role Role
}

// PostingList is sorted by item, then role.
type PostingList []Posting

// Items returns the distinct items posted under any of the given roles,
// in ascending order.
func (pl PostingList) Items(roles Role) []int {
	out := make([]int, 0, len(pl))
	for _, p := range pl {
		if p.Role&roles == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1] == p.Item {
			continue
		}
		out = append(out, p.Item)
	}
	return out
}

// Count returns the number of distinct items under the given roles.
func (pl PostingList) Count(roles Role) int {
	return len(pl.Items(roles))
}

type TermEntry struct {
	Key      typesig.Key
	Postings PostingList
}
