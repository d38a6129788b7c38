package governance

import (
	"github.com/eigerco/rewards/internal/block"
)

// Origin is the caller of a governance call.
type Origin struct {
	root    bool
	Account block.AccountId
}

// Root is the privileged origin. Only Root may change reward parameters.
func Root() Origin {
	return Origin{root: true}
}

// Signed is an origin backed by an ordinary account.
func Signed(account block.AccountId) Origin {
	return Origin{Account: account}
}

func (o Origin) IsRoot() bool {
	return o.root
}

func (o Origin) String() string {
	if o.root {
		return "root"
	}
	return "signed(" + o.Account.Short() + ")"
}
