package wire

import "errors"

// Validator accumulates frame-shape errors the way each protocol package's
// ValidateSize method reports them. The zero value is ready to use.
type Validator struct {
	err error
}

// AddError records err if no error has been recorded yet. Only the first
// error survives: callers read intent from the first broken invariant, not
// an exhaustive list, matching the "drop silently" error model of §7.
func (v *Validator) AddError(err error) {
	if err == nil {
		panic("wire: AddError called with nil error")
	}
	if v.err == nil {
		v.err = err
	}
}

// HasError reports whether any error was recorded.
func (v *Validator) HasError() bool { return v.err != nil }

// Err returns the first recorded error, or nil.
func (v *Validator) Err() error { return v.err }

// ErrPop returns the first recorded error and clears the validator.
func (v *Validator) ErrPop() error {
	err := v.err
	v.err = nil
	return err
}

// Reset clears any recorded error so the Validator can be reused.
func (v *Validator) Reset() { v.err = nil }

var (
	// ErrTooShort is a shared sentinel for "buffer shorter than this frame's
	// declared or minimum size". The protocol packages in this module
	// declare their own short-buffer errors rather than wrapping it.
	ErrTooShort = errors.New("wire: buffer too short")
)
