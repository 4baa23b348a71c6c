package api

import (
	"encoding/json"

	"github.com/arnac-io/wton/pkg/coins"
)

type JettonInfo struct {
	Minter         string      `json:"minter"`
	TotalSupply    coins.Coins `json:"total_supply"`
	Mintable       bool        `json:"mintable"`
	Admin          *string     `json:"admin,omitempty"`
	ContentURI     string      `json:"content_uri,omitempty"`
	WalletCodeHash string      `json:"wallet_code_hash"`
}

type JettonWallet struct {
	Address  string `json:"address"`
	Owner    string `json:"owner"`
	Deployed bool   `json:"deployed"`
	// Balance is the amount of wrapped coins, zero for a wallet that is not deployed yet.
	Balance    coins.Coins `json:"balance"`
	TonBalance coins.Coins `json:"ton_balance"`
}

type Account struct {
	Address           string      `json:"address"`
	Status            string      `json:"status"`
	Balance           coins.Coins `json:"balance"`
	LastTransactionLt uint64      `json:"last_transaction_lt"`
	Contract          string      `json:"contract,omitempty"`
}

type Accounts struct {
	Accounts []string `json:"accounts"`
}

type Message struct {
	CreatedLt   uint64      `json:"created_lt"`
	Source      *string     `json:"source,omitempty"`
	Destination *string     `json:"destination,omitempty"`
	Value       coins.Coins `json:"value"`
	FwdFee      coins.Coins `json:"fwd_fee"`
	Bounce      bool        `json:"bounce"`
	Bounced     bool        `json:"bounced"`
	OpCode      *uint32     `json:"op_code,omitempty"`
	Operation   string      `json:"operation,omitempty"`
	WithInit    bool        `json:"with_init"`
	Body        string      `json:"body,omitempty"`
	// Decoded is the parsed body with snake case keys.
	Decoded json.RawMessage `json:"decoded,omitempty"`
}

type ComputePhase struct {
	Skipped    bool        `json:"skipped"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Success    bool        `json:"success"`
	ExitCode   int32       `json:"exit_code"`
	GasUsed    uint64      `json:"gas_used"`
	GasFees    coins.Coins `json:"gas_fees"`
}

type ActionPhase struct {
	Success      bool        `json:"success"`
	ResultCode   int32       `json:"result_code"`
	TotalActions uint16      `json:"total_actions"`
	FwdFees      coins.Coins `json:"fwd_fees"`
}

type Transaction struct {
	Lt           uint64        `json:"lt"`
	Account      string        `json:"account"`
	Success      bool          `json:"success"`
	Aborted      bool          `json:"aborted"`
	OrigStatus   string        `json:"orig_status"`
	EndStatus    string        `json:"end_status"`
	EndBalance   coins.Coins   `json:"end_balance"`
	TotalFee     coins.Coins   `json:"total_fee"`
	InMsg        *Message      `json:"in_msg,omitempty"`
	OutMsgs      []Message     `json:"out_msgs"`
	ComputePhase *ComputePhase `json:"compute_phase,omitempty"`
	ActionPhase  *ActionPhase  `json:"action_phase,omitempty"`
	BouncePhase  string        `json:"bounce_phase,omitempty"`
}

type Trace struct {
	Transaction Transaction `json:"transaction"`
	Children    []Trace     `json:"children,omitempty"`
}

// SendMessageRequest injects an arbitrary internal message, the body is a boc in base64 or hex.
type SendMessageRequest struct {
	Source      string      `json:"source"`
	Destination string      `json:"destination"`
	Value       coins.Coins `json:"value"`
	Bounce      bool        `json:"bounce"`
	Body        string      `json:"body"`
	// Wait makes the call block until the whole trace is executed.
	Wait bool `json:"wait"`
}

type MintRequest struct {
	Source   string      `json:"source"`
	Receiver string      `json:"receiver"`
	Value    coins.Coins `json:"value"`
	QueryID  uint64      `json:"query_id"`
}

type TransferRequest struct {
	Destination         string      `json:"destination"`
	Amount              coins.Coins `json:"amount"`
	Value               coins.Coins `json:"value"`
	ResponseDestination string      `json:"response_destination"`
	ForwardTonAmount    coins.Coins `json:"forward_ton_amount"`
	QueryID             uint64      `json:"query_id"`
}

type BurnRequest struct {
	Amount              coins.Coins `json:"amount"`
	Value               coins.Coins `json:"value"`
	ResponseDestination string      `json:"response_destination"`
	QueryID             uint64      `json:"query_id"`
}

type SendResult struct {
	Accepted bool   `json:"accepted"`
	Trace    *Trace `json:"trace,omitempty"`
}
