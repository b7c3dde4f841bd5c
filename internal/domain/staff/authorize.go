package staff

// Authorize reports whether the account may perform an action gated on the
// given roles. A nil or disabled account is never authorized. The check is
// plain set membership: admin is not implicitly any other role, it must be
// listed among the accepted roles by the caller.
func Authorize(account *Account, roles ...Role) bool {
	if account == nil || account.Status != StatusActive {
		return false
	}
	for _, r := range roles {
		if account.Role == r {
			return true
		}
	}
	return false
}

// AuthorizeIdentity applies the same role check to a token-derived identity.
func AuthorizeIdentity(id Identity, roles ...Role) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}
