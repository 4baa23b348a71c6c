package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/ton"
	"go.uber.org/zap"

	"github.com/arnac-io/wton/pkg/coins"
	"github.com/arnac-io/wton/pkg/contract"
	"github.com/arnac-io/wton/pkg/emulator"
	"github.com/arnac-io/wton/pkg/genesis"
	"github.com/arnac-io/wton/pkg/wton"
)

var (
	alice = ton.MustParseAccountID("0:a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1a1")
	bob   = ton.MustParseAccountID("0:b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0")
	carol = ton.MustParseAccountID("0:cacacacacacacacacacacacacacacacacacacacacacacacacacacacacacacaca")
)

type testServer struct {
	network *emulator.Network
	state   genesis.State
	handler http.Handler
}

func newTestServer(t *testing.T, opts ...ServerOption) *testServer {
	params := wton.DefaultParams()
	registry, err := contract.NewRegistry(wton.NewMinter(params), wton.NewWallet(params))
	require.Nil(t, err)
	executor, err := emulator.NewExecutor(registry, emulator.DefaultConfig(), zap.NewNop(), emulator.WithOpNames(wton.OpName))
	require.Nil(t, err)
	n := emulator.NewNetwork(executor, zap.NewNop())
	t.Cleanup(func() {
		require.Nil(t, n.Close())
	})
	f := genesis.FromAccounts([]ton.AccountID{alice, bob}, coins.MustParse("10"))
	f.Minter.ContentURI = "https://example.org/wton.json"
	state, err := f.Apply(n)
	require.Nil(t, err)
	server := NewServer(zap.NewNop(), NewHandler(zap.NewNop(), n, state.Minter), ":0", opts...)
	t.Cleanup(func() {
		require.Nil(t, server.Shutdown(context.Background()))
	})
	return &testServer{network: n, state: state, handler: server.Handler()}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	var payload bytes.Buffer
	if body != nil {
		require.Nil(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if out != nil {
		require.Nil(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func TestHandler_GetJetton(t *testing.T) {
	s := newTestServer(t)
	var res JettonInfo
	status := s.do(t, http.MethodGet, "/v1/jetton", nil, &res)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, s.state.Minter.ToRaw(), res.Minter)
	require.Equal(t, "20", res.TotalSupply.String())
	require.True(t, res.Mintable)
	require.Nil(t, res.Admin)
	require.Equal(t, "https://example.org/wton.json", res.ContentURI)
	require.NotEmpty(t, res.WalletCodeHash)
}

func TestHandler_GetJettonWallet(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name     string
		owner    ton.AccountID
		deployed bool
		balance  string
	}{
		{name: "genesis wallet", owner: alice, deployed: true, balance: "10"},
		{name: "not deployed yet", owner: carol, deployed: false, balance: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res JettonWallet
			status := s.do(t, http.MethodGet, "/v1/jetton/wallets/"+tt.owner.ToRaw(), nil, &res)
			require.Equal(t, http.StatusOK, status)
			require.Equal(t, tt.deployed, res.Deployed)
			require.Equal(t, tt.balance, res.Balance.String())
			require.Equal(t, tt.owner.ToRaw(), res.Owner)
		})
	}
	var res Error
	status := s.do(t, http.MethodGet, "/v1/jetton/wallets/garbage", nil, &res)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestHandler_MintTransferBurn(t *testing.T) {
	s := newTestServer(t)

	var minted SendResult
	status := s.do(t, http.MethodPost, "/v1/jetton/mint", MintRequest{
		Source:   carol.ToRaw(),
		Receiver: carol.ToRaw(),
		Value:    coins.MustParse("5"),
	}, &minted)
	require.Equal(t, http.StatusOK, status)
	require.True(t, minted.Trace.Transaction.Success)
	require.Len(t, minted.Trace.Children, 1)
	require.Equal(t, "internal_transfer", minted.Trace.Children[0].Transaction.InMsg.Operation)
	var decoded map[string]any
	require.Nil(t, json.Unmarshal(minted.Trace.Transaction.InMsg.Decoded, &decoded))
	require.Contains(t, decoded, "query_id")
	require.Contains(t, decoded, "receiver")

	var wallet JettonWallet
	s.do(t, http.MethodGet, "/v1/jetton/wallets/"+carol.ToRaw(), nil, &wallet)
	require.True(t, wallet.Deployed)
	require.Equal(t, "4.974", wallet.Balance.String())

	var transferred SendResult
	status = s.do(t, http.MethodPost, "/v1/jetton/wallets/"+alice.ToRaw()+"/transfer", TransferRequest{
		Destination:         bob.ToRaw(),
		Amount:              coins.MustParse("1.5"),
		Value:               coins.MustParse("0.1"),
		ResponseDestination: alice.ToRaw(),
	}, &transferred)
	require.Equal(t, http.StatusOK, status)
	require.True(t, transferred.Trace.Transaction.Success)

	s.do(t, http.MethodGet, "/v1/jetton/wallets/"+bob.ToRaw(), nil, &wallet)
	require.Equal(t, "11.5", wallet.Balance.String())

	var burned SendResult
	status = s.do(t, http.MethodPost, "/v1/jetton/wallets/"+bob.ToRaw()+"/burn", BurnRequest{
		Amount:              coins.MustParse("2"),
		Value:               coins.MustParse("0.1"),
		ResponseDestination: bob.ToRaw(),
	}, &burned)
	require.Equal(t, http.StatusOK, status)
	require.True(t, burned.Trace.Transaction.Success)

	var jetton JettonInfo
	s.do(t, http.MethodGet, "/v1/jetton", nil, &jetton)
	require.Equal(t, "22.974", jetton.TotalSupply.String())
}

func TestHandler_TransferRejected(t *testing.T) {
	s := newTestServer(t)
	var res SendResult
	status := s.do(t, http.MethodPost, "/v1/jetton/wallets/"+alice.ToRaw()+"/transfer", TransferRequest{
		Destination: bob.ToRaw(),
		Amount:      coins.MustParse("100"),
		Value:       coins.MustParse("0.1"),
	}, &res)
	require.Equal(t, http.StatusOK, status)
	require.False(t, res.Trace.Transaction.Success)
	require.Equal(t, int32(wton.ErrNotEnoughFunds), res.Trace.Transaction.ComputePhase.ExitCode)
	require.Equal(t, "bounced", res.Trace.Children[0].Transaction.InMsg.Operation)
}

func TestHandler_Accounts(t *testing.T) {
	s := newTestServer(t)
	var accounts Accounts
	status := s.do(t, http.MethodGet, "/v1/accounts", nil, &accounts)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, accounts.Accounts, 3)

	var account Account
	status = s.do(t, http.MethodGet, "/v1/accounts/"+s.state.Minter.ToRaw(), nil, &account)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, wton.MinterCodeName, account.Contract)
	require.Equal(t, "active", account.Status)

	var e Error
	status = s.do(t, http.MethodGet, "/v1/accounts/"+carol.ToRaw(), nil, &e)
	require.Equal(t, http.StatusNotFound, status)
}

func TestHandler_SendMessage(t *testing.T) {
	s := newTestServer(t)
	body, err := wton.Mint{Receiver: &carol}.Pack()
	require.Nil(t, err)
	raw, err := body.ToBocBase64()
	require.Nil(t, err)

	var res SendResult
	status := s.do(t, http.MethodPost, "/v1/messages", SendMessageRequest{
		Source:      carol.ToRaw(),
		Destination: s.state.Minter.ToRaw(),
		Value:       coins.MustParse("1"),
		Bounce:      true,
		Body:        raw,
	}, &res)
	require.Equal(t, http.StatusAccepted, status)
	require.True(t, res.Accepted)
	require.Nil(t, res.Trace)
	require.Nil(t, s.network.Wait(context.Background()))

	var jetton JettonInfo
	s.do(t, http.MethodGet, "/v1/jetton", nil, &jetton)
	require.Equal(t, "20.974", jetton.TotalSupply.String())

	var e Error
	status = s.do(t, http.MethodPost, "/v1/messages", SendMessageRequest{
		Source:      carol.ToRaw(),
		Destination: s.state.Minter.ToRaw(),
		Body:        "not a boc",
	}, &e)
	require.Equal(t, http.StatusBadRequest, status)
}

func TestServer_WriteRateLimit(t *testing.T) {
	s := newTestServer(t, WithWriteRateLimit(1, time.Minute))
	mint := MintRequest{Source: carol.ToRaw(), Receiver: carol.ToRaw(), Value: coins.MustParse("1")}

	status := s.do(t, http.MethodPost, "/v1/jetton/mint", mint, nil)
	require.Equal(t, http.StatusOK, status)

	var res Error
	status = s.do(t, http.MethodPost, "/v1/jetton/mint", mint, &res)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, ErrRateLimited.Error(), res.Error)

	status = s.do(t, http.MethodGet, "/v1/jetton", nil, nil)
	require.Equal(t, http.StatusOK, status)
}
