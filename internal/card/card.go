package card

// Card is one business card as persisted and as serialized.
//
// All text fields default to the empty string, never null, so display and
// concatenation logic needs no nil checks. ID is assigned by the store on
// insert and is immutable afterwards.
type Card struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
	Position   string `json:"position"`
	Company    string `json:"company"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Website    string `json:"website"`
	Street     string `json:"street"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`
	Country    string `json:"country"`
	IsPrivate  bool   `json:"is_private"`
}

// FullName returns "<given> <family>" when both parts are set, whichever
// part is non-empty when only one is set, and "" when both are empty.
func (c Card) FullName() string {
	switch {
	case c.GivenName != "" && c.FamilyName != "":
		return c.GivenName + " " + c.FamilyName
	case c.GivenName != "":
		return c.GivenName
	default:
		return c.FamilyName
	}
}

// ViewState pairs a card with its presentation-only expansion flag. The flag
// is never persisted; it lives here instead of on Card so durable records and
// view state stay separate types.
type ViewState struct {
	Card
	Expanded bool `json:"expanded"`
}

// ToggleExpanded returns a copy with the expansion flag flipped.
func (v ViewState) ToggleExpanded() ViewState {
	v.Expanded = !v.Expanded
	return v
}
