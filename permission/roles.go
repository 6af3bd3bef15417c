package permission

// Portal realm roles.
const (
	RoleSuperUser     = "SUPER_USER"
	RoleMaker         = "MAKER"
	RoleChecker       = "CHECKER"
	RoleCheckerLevel1 = "CHECKER_LEVEL_1"
	RoleCheckerLevel2 = "CHECKER_LEVEL_2"
	RoleCheckerLevel3 = "CHECKER_LEVEL_3"
	RoleViewer        = "VIEWER"
)

var checkerLevels = []string{RoleCheckerLevel1, RoleCheckerLevel2, RoleCheckerLevel3}

// Expand replaces CHECKER with the three checker levels, keeping the order
// of everything else.
func Expand(roles ...string) []string {
	out := make([]string, 0, len(roles)+2)
	for _, r := range roles {
		if r == RoleChecker {
			out = append(out, checkerLevels...)
			continue
		}
		out = append(out, r)
	}
	return out
}

// HasAny reports whether userRoles contains at least one of required after
// expansion. Nil or empty userRoles never match.
func HasAny(userRoles []string, required ...string) bool {
	if len(userRoles) == 0 {
		return false
	}
	held := make(map[string]struct{}, len(userRoles))
	for _, r := range userRoles {
		held[r] = struct{}{}
	}
	for _, r := range Expand(required...) {
		if _, ok := held[r]; ok {
			return true
		}
	}
	return false
}

// Visible applies an optional inversion to HasAny: with invert set, the
// feature is shown to users that hold none of the required roles.
func Visible(userRoles []string, invert bool, required ...string) bool {
	return HasAny(userRoles, required...) != invert
}
