package identity

// Self-or-admin access policy. Decisions are pure functions over ids and the
// caller's superuser flag: existence of the target is a separate, later
// check so probing the policy leaks nothing about which accounts exist.

// CanView reports whether caller may read the record owned by ownerID
func CanView(caller Identity, ownerID string) bool {
	if caller == nil {
		return false
	}
	return caller.IsSuperuser() || caller.ID() == ownerID
}

// CanModify reports whether caller may update the record owned by ownerID.
// Same rule as CanView: the policy is symmetric for reads and writes.
func CanModify(caller Identity, ownerID string) bool {
	return CanView(caller, ownerID)
}

// CanList reports whether caller may enumerate identities. Admin only,
// regardless of target.
func CanList(caller Identity) bool {
	return caller != nil && caller.IsSuperuser()
}

// CanDelete reports whether caller may hard delete identities. Admin only,
// self-access does not apply.
func CanDelete(caller Identity) bool {
	return caller != nil && caller.IsSuperuser()
}

// RequireView returns ErrNotAuthorized unless CanView passes
func RequireView(caller Identity, ownerID string) error {
	if !CanView(caller, ownerID) {
		return ErrNotAuthorized
	}
	return nil
}

// RequireModify returns ErrNotAuthorized unless CanModify passes
func RequireModify(caller Identity, ownerID string) error {
	if !CanModify(caller, ownerID) {
		return ErrNotAuthorized
	}
	return nil
}

// RequireList returns ErrNotAuthorized unless CanList passes
func RequireList(caller Identity) error {
	if !CanList(caller) {
		return ErrNotAuthorized
	}
	return nil
}

// RequireDelete returns ErrNotAuthorized unless CanDelete passes
func RequireDelete(caller Identity) error {
	if !CanDelete(caller) {
		return ErrNotAuthorized
	}
	return nil
}
