package diamond

// Authorize checks that caller is the current owner. It is evaluated before
// anything else about a change is looked at.
func Authorize(caller, owner Address) error {
	if owner.IsZero() || caller != owner {
		return &CutError{Kind: KindUnauthorized, Op: -1}
	}
	return nil
}

// checkTransfer validates an ownership transfer from owner to newOwner
// requested by caller.
func checkTransfer(caller, owner, newOwner Address) error {
	if err := Authorize(caller, owner); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return &CutError{Kind: KindNullOwner, Op: -1}
	}
	return nil
}
