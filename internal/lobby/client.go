package lobby

import "sync"

// Role is the side a member plays in a round.
type Role uint8

const (
	RoleUndefined Role = iota
	RolePrey
	RolePredator
)

var roleNames = [...]string{"UNDEFINED", "PREY", "PREDATOR"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "UNKNOWN"
}

// ParseRole maps a role name back to a Role.
func ParseRole(s string) (Role, bool) {
	for i, n := range roleNames {
		if n == s {
			return Role(i), true
		}
	}
	return RoleUndefined, false
}

// Client is a connected player. ID and Name never change.
type Client struct {
	ID   string
	Name string

	mu      sync.Mutex
	lobbyID string
	role    Role
}

func (c *Client) LobbyID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lobbyID
}

func (c *Client) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *Client) setLobby(id string) {
	c.mu.Lock()
	c.lobbyID = id
	c.mu.Unlock()
}

func (c *Client) setRole(r Role) {
	c.mu.Lock()
	c.role = r
	c.mu.Unlock()
}
