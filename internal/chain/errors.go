package chain

import "errors"

var (
	ErrNotInitialized     = errors.New("chain has no genesis state")
	ErrAlreadyInitialized = errors.New("chain is already initialized")
	ErrUnexpectedHeight   = errors.New("unexpected block height")
	ErrNondeterministic   = errors.New("replicas disagree on the block's rewards")
	ErrAuditMismatch      = errors.New("credited total does not match issuance")
)
