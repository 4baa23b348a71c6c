package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/tonkeeper/tongo/boc"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"github.com/arnac-io/wton/pkg/cache"
	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/core"
	"github.com/arnac-io/wton/pkg/wton"
)

type Handler struct {
	logger     *zap.Logger
	network    network
	minter     ton.AccountID
	getMethods *cache.Cache[string, any]
}

func NewHandler(logger *zap.Logger, network network, minter ton.AccountID) *Handler {
	return &Handler{
		logger:     logger,
		network:    network,
		minter:     minter,
		getMethods: cache.NewLRUCache[string, any](10_000, "get_methods"),
	}
}

// Routes registers the handlers on a mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	routes := map[string]http.HandlerFunc{
		"GET /v1/jetton":                           h.GetJetton,
		"POST /v1/jetton/mint":                     h.Mint,
		"GET /v1/jetton/wallets/{owner}":           h.GetJettonWallet,
		"POST /v1/jetton/wallets/{owner}/transfer": h.Transfer,
		"POST /v1/jetton/wallets/{owner}/burn":     h.Burn,
		"GET /v1/accounts":                         h.GetAccounts,
		"GET /v1/accounts/{account_id}":            h.GetAccount,
		"POST /v1/messages":                        h.SendMessage,
	}
	for pattern, fn := range routes {
		mux.Handle(pattern, instrument(pattern, fn))
	}
}

func (h *Handler) GetJetton(w http.ResponseWriter, r *http.Request) {
	data, err := runGetMethod(h, h.minter, wton.GetJettonDataMethod, nil, wton.GetJettonData)
	if err != nil {
		writeError(w, err)
		return
	}
	uri, err := wton.ContentURI(data.Content)
	if err != nil {
		h.logger.Warn("minter content is not tep-64", zap.Error(err))
	}
	codeHash, err := data.WalletCode.HashString()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, JettonInfo{
		Minter:         h.minter.ToRaw(),
		TotalSupply:    data.TotalSupply,
		Mintable:       data.Mintable,
		Admin:          optionalRaw(data.Admin),
		ContentURI:     uri,
		WalletCodeHash: codeHash,
	})
}

func (h *Handler) walletOf(owner ton.AccountID) (ton.AccountID, error) {
	return runGetMethod(h, h.minter, wton.GetWalletAddressMethod, []string{owner.ToRaw()},
		func(code contract.Code, ctx contract.GetContext) (ton.AccountID, error) {
			return wton.GetWalletAddress(code, ctx, owner)
		})
}

func (h *Handler) GetJettonWallet(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAccountID(r.PathValue("owner"))
	if err != nil {
		writeError(w, err)
		return
	}
	address, err := h.walletOf(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	res := JettonWallet{Address: address.ToRaw(), Owner: owner.ToRaw()}
	account, ok := h.network.Account(address)
	if ok {
		res.TonBalance = account.Balance
	}
	if ok && account.IsActive() {
		data, err := runGetMethod(h, address, wton.GetWalletDataMethod, nil, wton.GetWalletData)
		if err != nil {
			writeError(w, err)
			return
		}
		res.Deployed = true
		res.Balance = data.Balance
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	res := Accounts{Accounts: []string{}}
	for _, a := range h.network.Accounts() {
		res.Accounts = append(res.Accounts, a.ToRaw())
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	address, err := parseAccountID(r.PathValue("account_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	account, ok := h.network.Account(address)
	if !ok {
		writeJSON(w, http.StatusNotFound, Error{Error: "account not found"})
		return
	}
	var name string
	if account.IsActive() {
		if code, _, err := h.network.GetContext(address); err == nil {
			name = code.Name()
		}
	}
	writeJSON(w, http.StatusOK, convertAccount(account, name))
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	source, err := parseAccountID(req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	destination, err := parseAccountID(req.Destination)
	if err != nil {
		writeError(w, err)
		return
	}
	var body *boc.Cell
	if req.Body != "" {
		body, err = deserializeSingleBoc(req.Body)
		if err != nil {
			writeError(w, toBadRequest(err))
			return
		}
	}
	h.deliver(w, r.Context(), newMessage(source, destination, req.Value, req.Bounce, body), req.Wait)
}

func (h *Handler) Mint(w http.ResponseWriter, r *http.Request) {
	var req MintRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	source, err := parseAccountID(req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	receiver, err := parseAccountID(req.Receiver)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := wton.Mint{QueryID: req.QueryID, Receiver: &receiver}.Pack()
	if err != nil {
		writeError(w, err)
		return
	}
	h.deliver(w, r.Context(), newMessage(source, h.minter, req.Value, true, body), true)
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAccountID(r.PathValue("owner"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req TransferRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	destination, err := parseAccountID(req.Destination)
	if err != nil {
		writeError(w, err)
		return
	}
	response, err := parseOptionalAccountID(req.ResponseDestination)
	if err != nil {
		writeError(w, err)
		return
	}
	wallet, err := h.walletOf(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := wton.Transfer{
		QueryID:             req.QueryID,
		Amount:              req.Amount,
		Destination:         &destination,
		ResponseDestination: response,
		ForwardTonAmount:    req.ForwardTonAmount,
	}.Pack()
	if err != nil {
		writeError(w, err)
		return
	}
	h.deliver(w, r.Context(), newMessage(owner, wallet, req.Value, true, body), true)
}

func (h *Handler) Burn(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAccountID(r.PathValue("owner"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req BurnRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, err)
		return
	}
	response, err := parseOptionalAccountID(req.ResponseDestination)
	if err != nil {
		writeError(w, err)
		return
	}
	wallet, err := h.walletOf(owner)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := wton.Burn{
		QueryID:             req.QueryID,
		Amount:              req.Amount,
		ResponseDestination: response,
	}.Pack()
	if err != nil {
		writeError(w, err)
		return
	}
	h.deliver(w, r.Context(), newMessage(owner, wallet, req.Value, true, body), true)
}

func (h *Handler) deliver(w http.ResponseWriter, ctx context.Context, msg core.Message, wait bool) {
	if !wait {
		if err := h.network.SendWithRetry(ctx, msg); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, SendResult{Accepted: true})
		return
	}
	trace, err := h.network.Execute(ctx, msg)
	if err != nil {
		writeError(w, err)
		return
	}
	res := convertTrace(trace)
	writeJSON(w, http.StatusOK, SendResult{Accepted: true, Trace: &res})
}

func newMessage(source, destination ton.AccountID, value coins.Coins, bounce bool, body *boc.Cell) core.Message {
	return core.Message{
		MessageID: core.MessageID{Source: &source, Destination: &destination},
		Bounce:    bounce,
		Value:     value,
		Body:      body,
		OpCode:    core.ReadOpCode(body),
	}
}

func decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return toBadRequest(errors.Wrap(err, "decode request"))
	}
	return nil
}
