package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sprout-finance/sprout/internal/config"
	"github.com/sprout-finance/sprout/internal/node"
	"github.com/sprout-finance/sprout/internal/types"
)

// decodeTx reads a TxRequest and parses its caller.
func (ws *WebServer) decodeTx(w http.ResponseWriter, r *http.Request) (TxRequest, types.Identity, bool) {
	var req TxRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", fmt.Sprintf("Invalid request body: %v", err))
		return req, types.Identity{}, false
	}
	caller, err := types.ParseIdentity(req.Caller)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid caller identity")
		return req, types.Identity{}, false
	}
	return req, caller, true
}

func (ws *WebServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	res, err := ws.service.Deposit(r.Context(), caller, req.Amount)
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	res, err := ws.service.Withdraw(r.Context(), caller, req.Amount)
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleWithdrawFees(w http.ResponseWriter, r *http.Request) {
	_, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	res, err := ws.service.WithdrawFees(r.Context(), caller)
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleSetFee(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	res, err := ws.service.SetWithdrawalFee(r.Context(), caller, req.Bps)
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleSetSlippage(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	res, err := ws.service.SetSlippageTolerance(r.Context(), caller, req.Bps)
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleSetFeeTreasury(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	var recipient types.Identity
	if req.Recipient != "" {
		var err error
		if recipient, err = types.ParseIdentity(req.Recipient); err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid recipient identity")
			return
		}
	}
	res, err := ws.service.SetFeeTreasury(r.Context(), caller, recipient)
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleFaucet(w http.ResponseWriter, r *http.Request) {
	var req FaucetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid request body")
		return
	}
	to, err := types.ParseIdentity(req.To)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid recipient identity")
		return
	}
	asset, err := config.ResolveAsset(req.Asset)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", err.Error())
		return
	}
	if err := ws.service.Faucet(to, asset, req.Amount); err != nil {
		ws.writeError(w, err, nil)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]any{"to": to, "asset": asset, "amount": req.Amount})
}

// parseRecipient reads the request's recipient identity. An empty recipient is rejected unless optional.
func (ws *WebServer) parseRecipient(w http.ResponseWriter, req TxRequest, optional bool) (types.Identity, bool) {
	if req.Recipient == "" && optional {
		return types.Identity{}, true
	}
	recipient, err := types.ParseIdentity(req.Recipient)
	if err != nil || recipient.IsZero() {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid recipient identity")
		return types.Identity{}, false
	}
	return recipient, true
}

// parseContract reads the request's contract id. An empty id is rejected unless optional.
func (ws *WebServer) parseContract(w http.ResponseWriter, req TxRequest, optional bool) (types.ContractID, bool) {
	if req.Contract == "" && optional {
		return types.ContractID{}, true
	}
	id, err := types.ParseContractID(req.Contract)
	if err != nil || id == (types.ContractID{}) {
		ws.writeErrorResponse(w, http.StatusBadRequest, "", "Invalid contract id")
		return types.ContractID{}, false
	}
	return id, true
}

func (ws *WebServer) writeTx(w http.ResponseWriter, res node.TxResult, err error) {
	if err != nil {
		ws.writeError(w, err, &res.Receipt)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, res)
}

func (ws *WebServer) handleSetStrategyOwner(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	newOwner, ok := ws.parseRecipient(w, req, false)
	if !ok {
		return
	}
	res, err := ws.service.SetStrategyOwner(r.Context(), caller, newOwner)
	ws.writeTx(w, res, err)
}

func (ws *WebServer) handleSetAMM(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	amm, ok := ws.parseContract(w, req, false)
	if !ok {
		return
	}
	res, err := ws.service.SetAMMContract(r.Context(), caller, amm)
	ws.writeTx(w, res, err)
}

// handleSetReceiptToken accepts an empty contract to make the strategy issue its own receipts.
func (ws *WebServer) handleSetReceiptToken(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	receiptToken, ok := ws.parseContract(w, req, true)
	if !ok {
		return
	}
	res, err := ws.service.SetReceiptToken(r.Context(), caller, receiptToken)
	ws.writeTx(w, res, err)
}

func (ws *WebServer) handleSetTreasuryStrategy(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	strategyIdentity, ok := ws.parseRecipient(w, req, false)
	if !ok {
		return
	}
	res, err := ws.service.SetTreasuryStrategy(r.Context(), caller, strategyIdentity)
	ws.writeTx(w, res, err)
}

func (ws *WebServer) handleSetProxyTarget(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	target, ok := ws.parseContract(w, req, false)
	if !ok {
		return
	}
	res, err := ws.service.SetProxyTarget(r.Context(), caller, target)
	ws.writeTx(w, res, err)
}

func (ws *WebServer) handleSetTokenApproval(w http.ResponseWriter, r *http.Request) {
	req, caller, ok := ws.decodeTx(w, r)
	if !ok {
		return
	}
	strategyID, ok := ws.parseContract(w, req, false)
	if !ok {
		return
	}
	res, err := ws.service.SetTokenApproval(r.Context(), caller, strategyID, req.Approved)
	ws.writeTx(w, res, err)
}
