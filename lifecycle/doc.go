// Package lifecycle implements the optional infrastructure lifecycle
// capability: four independent operations (init, destroy, status,
// plan) a provider may support when it provisions external resources.
//
// The operations form a dispatch table, not a sequenced state machine:
// each is idempotent from the host's point of view and every
// invocation produces exactly one Result, even when the provider hook
// fails or panics. A provider that embeds Noop supports all four
// operations as no-ops instead of failing.
//
//	type Deployer struct {
//	    provider.Base[DeployConfig]
//	    lifecycle.Noop
//	}
//
//	func (d *Deployer) OnPlan(ctx context.Context) ([]string, map[string]any, error) {
//	    ...
//	}
package lifecycle
