package domain

// ShareID is the public identifier of a bio page.
type ShareID string

const shareIDSeparator = "_"

// NewShareID derives the share id for a user's page built from a template.
// User ids are assumed not to contain the separator; this is not validated.
func NewShareID(userID, templateID string) ShareID {
	return ShareID(userID + shareIDSeparator + templateID)
}

func (s ShareID) String() string { return string(s) }
