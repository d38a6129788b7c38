package event

import (
	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/currency"
)

// Kind identifies the type of an Event.
type Kind uint8

const (
	KindRewardIssued Kind = iota + 1
	KindCapReached
	KindScheduleChanged
	KindChangeRejected
)

func (k Kind) String() string {
	switch k {
	case KindRewardIssued:
		return "reward_issued"
	case KindCapReached:
		return "cap_reached"
	case KindScheduleChanged:
		return "schedule_changed"
	case KindChangeRejected:
		return "change_rejected"
	default:
		return "unknown"
	}
}

// Event is an observational notification. Events never feed back into
// consensus state, they exist for telemetry and indexing.
type Event interface {
	Kind() Kind
	BlockHeight() uint64
}

// Recipient role of a RewardIssued event.
type Role uint8

const (
	RoleAuthor Role = iota + 1
	RoleVoter
)

func (r Role) String() string {
	switch r {
	case RoleAuthor:
		return "author"
	case RoleVoter:
		return "voter"
	default:
		return "unknown"
	}
}

// RewardIssued is emitted once per credit instruction.
type RewardIssued struct {
	Height    uint64
	Recipient block.AccountId
	Amount    currency.Balance
	Role      Role
}

func (RewardIssued) Kind() Kind            { return KindRewardIssued }
func (e RewardIssued) BlockHeight() uint64 { return e.Height }

// CapReached is emitted for every block whose nominal reward had to be capped.
// First is only set on the first such block of the chain.
type CapReached struct {
	Height    uint64
	Scheduled currency.Balance // nominal reward before capping
	Capped    currency.Balance // amount actually distributed
	First     bool
}

func (CapReached) Kind() Kind            { return KindCapReached }
func (e CapReached) BlockHeight() uint64 { return e.Height }

// ScheduleChanged is emitted when a governed parameter change takes effect.
type ScheduleChanged struct {
	Height      uint64
	ProposalSeq uint64
	Summary     string
}

func (ScheduleChanged) Kind() Kind            { return KindScheduleChanged }
func (e ScheduleChanged) BlockHeight() uint64 { return e.Height }

// ChangeRejected is emitted when a due parameter change could not be applied.
type ChangeRejected struct {
	Height      uint64
	ProposalSeq uint64
	Reason      string
}

func (ChangeRejected) Kind() Kind            { return KindChangeRejected }
func (e ChangeRejected) BlockHeight() uint64 { return e.Height }
