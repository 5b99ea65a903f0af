package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AddressError attaches the offending address to a named failure such as
// InvalidAddress(addr) or TokenNotAllowed(token).
type AddressError struct {
	Err     error
	Address common.Address
}

// WithAddress wraps err with the supplied address.
func WithAddress(err error, addr common.Address) error {
	return &AddressError{Err: err, Address: addr}
}

func (e *AddressError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Address.Hex())
}

func (e *AddressError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AddressOf extracts the address carried by err, if any.
func AddressOf(err error) (common.Address, bool) {
	var addrErr *AddressError
	if stderrors.As(err, &addrErr) && addrErr != nil {
		return addrErr.Address, true
	}
	return common.Address{}, false
}
