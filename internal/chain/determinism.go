package chain

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/eigerco/rewards/internal/block"
	"github.com/eigerco/rewards/internal/crypto"
	"github.com/eigerco/rewards/internal/distribution"
	"github.com/eigerco/rewards/internal/reward"
)

// VerifyDeterminism runs the distribution of one block on replicas independent
// copies of prior and checks that every copy produced the same credits and
// the same posterior state as expected.
func VerifyDeterminism(ctx context.Context, schedule reward.Schedule, prior distribution.State, rc block.RewardContext, expected distribution.State, expectedDigest crypto.Hash, replicas int) error {
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < replicas; i++ {
		replica := i
		// every replica works on its own copy of the inputs
		input := rc
		input.Votes = slices.Clone(rc.Votes)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			post, out, err := distribution.Distribute(schedule, prior, input)
			if err != nil {
				return fmt.Errorf("replica %d: %w", replica, err)
			}
			digest, err := out.Credits.Digest()
			if err != nil {
				return fmt.Errorf("replica %d: %w", replica, err)
			}
			if digest != expectedDigest {
				return fmt.Errorf("%w: replica %d credits digest %s, expected %s", ErrNondeterministic, replica, digest, expectedDigest)
			}
			if post != expected {
				return fmt.Errorf("%w: replica %d posterior state differs", ErrNondeterministic, replica)
			}
			return nil
		})
	}

	return g.Wait()
}
