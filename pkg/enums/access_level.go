package enums

import "fmt"

// AccessLevel ranks user privileges. Lower numbers grant more access.
type AccessLevel int

const (
	AccessLevelAdmin       AccessLevel = 1
	AccessLevelSupervisor  AccessLevel = 2
	AccessLevelOperator    AccessLevel = 3
	AccessLevelClientAdmin AccessLevel = 4
)

var accessLevelNames = map[AccessLevel]string{
	AccessLevelAdmin:       "admin",
	AccessLevelSupervisor:  "supervisor",
	AccessLevelOperator:    "operator",
	AccessLevelClientAdmin: "client_admin",
}

// String implements fmt.Stringer.
func (a AccessLevel) String() string {
	if name, ok := accessLevelNames[a]; ok {
		return name
	}
	return fmt.Sprintf("access_level(%d)", int(a))
}

// IsValid reports whether the value is a known AccessLevel.
func (a AccessLevel) IsValid() bool {
	_, ok := accessLevelNames[a]
	return ok
}

// Grants reports whether the level satisfies the required one.
func (a AccessLevel) Grants(required AccessLevel) bool {
	return a.IsValid() && required.IsValid() && a <= required
}

// ScopedToClients reports whether users at this level only see their assigned
// clients. Admins see everything.
func (a AccessLevel) ScopedToClients() bool {
	return a != AccessLevelAdmin
}

// ParseAccessLevel converts raw input into an AccessLevel.
func ParseAccessLevel(value int) (AccessLevel, error) {
	level := AccessLevel(value)
	if !level.IsValid() {
		return 0, fmt.Errorf("invalid access level %d", value)
	}
	return level, nil
}
