package conversation

// State is the position of a user in the catalog menu.
type State string

const (
	StateNone           State = ""
	StateBrandSelect    State = "brand_select"
	StateCategorySelect State = "category_select"
	StateProductView    State = "product_view"
	StateEnded          State = "ended"
)

// Active reports whether the user is inside a session. None and Ended are
// both entry points that only react to the start keyword.
func (s State) Active() bool {
	return s != StateNone && s != StateEnded
}

func (s State) String() string {
	if s == StateNone {
		return "none"
	}
	return string(s)
}

// Selection holds what the user has picked so far. Empty strings mean unset.
type Selection struct {
	Brands     []string
	Brand      string
	Categories []string
	Category   string
}

// Session is one user's state and selection.
type Session struct {
	State     State
	Selection Selection
}

func (s Session) clone() Session {
	s.Selection.Brands = cloneStrings(s.Selection.Brands)
	s.Selection.Categories = cloneStrings(s.Selection.Categories)
	return s
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
