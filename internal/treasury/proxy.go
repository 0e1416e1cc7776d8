package treasury

import (
	"fmt"

	"github.com/sprout-finance/sprout/internal/host"
	"github.com/sprout-finance/sprout/internal/ownership"
	"github.com/sprout-finance/sprout/internal/types"
)

// Initialize sets the proxy owner to the caller and stores the implementation target. It runs once.
func (t *Treasury) Initialize(call *host.Call, target types.ContractID) error {
	if t.proxyState == ownership.Initialized {
		return fmt.Errorf("%w: proxy already initialized", types.ErrAlreadyInitialized)
	}
	if err := t.proxyOwner.InitializeWith(call.Caller); err != nil {
		return err
	}
	t.proxyState = ownership.Initialized
	t.proxyTarget = target

	call.Emit("ProxyInitialized", map[string]any{"owner": call.Caller.String(), "target": target.String()})
	t.logger.Info().Str("owner", call.Caller.String()).Str("target", target.String()).Msg("Proxy initialized")
	return nil
}

// SetProxyTarget points the proxy at a new implementation. Only the proxy owner may call it, any number of times.
func (t *Treasury) SetProxyTarget(call *host.Call, target types.ContractID) error {
	if t.proxyState != ownership.Initialized {
		return fmt.Errorf("%w: proxy not initialized", types.ErrNotOwner)
	}
	if err := t.proxyOwner.RequireOwner(call.Caller); err != nil {
		return err
	}
	previous := t.proxyTarget
	t.proxyTarget = target

	call.Emit("ProxyTargetSet", map[string]any{"previous": previous.String(), "target": target.String()})
	t.logger.Info().Str("previous", previous.String()).Str("target", target.String()).Msg("Proxy target updated")
	return nil
}

// ProxyOwner returns the proxy ownership state and, once initialized, its owner.
func (t *Treasury) ProxyOwner() (ownership.State, types.Identity) {
	owner, _ := t.proxyOwner.Owner()
	return t.proxyOwner.State(), owner
}

// ProxyTarget returns the implementation target, or false before initialization.
func (t *Treasury) ProxyTarget() (types.ContractID, bool) {
	return t.proxyTarget, t.proxyState == ownership.Initialized
}
