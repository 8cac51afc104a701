package domain

type AccountID string

// Account is one manifest entry: everything needed to open a session
// against the backend on behalf of a single user.
type Account struct {
	ID             AccountID
	Name           string
	InitData       string
	UserAgent      string
	DevicePlatform string
	Proxy          string
}

// Profile is the server-side view of the account, refreshed after each
// authentication.
type Profile struct {
	TelegramID int64
	Username   string
	ClanID     *int64
	Balance    int64
	Tickets    int
}

type Clan struct {
	ID   int64
	Name string
}
