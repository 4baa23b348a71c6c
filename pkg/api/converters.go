package api

import (
	"encoding/json"

	"github.com/arnac-io/wton/internal/g"
	"github.com/arnac-io/wton/pkg/core"
	"github.com/arnac-io/wton/pkg/wton"
)

func convertMessage(m core.Message) Message {
	msg := Message{
		CreatedLt:   m.CreatedLt,
		Source:      optionalRaw(m.Source),
		Destination: optionalRaw(m.Destination),
		Value:       m.Value,
		FwdFee:      m.FwdFee,
		Bounce:      m.Bounce,
		Bounced:     m.Bounced,
		OpCode:      m.OpCode,
		WithInit:    m.Init != nil,
	}
	if m.OpCode != nil {
		msg.Operation = wton.OpName(*m.OpCode)
	}
	if m.Body != nil && !m.Bounced {
		msg.Decoded = decodeBody(m)
	}
	if m.Body != nil {
		if body, err := m.BodyCell(); err == nil {
			msg.Body, _ = body.ToBocBase64()
		}
	}
	return msg
}

func decodeBody(m core.Message) json.RawMessage {
	op, err := wton.DecodeBody(m.Body)
	if err != nil {
		return nil
	}
	raw, err := json.Marshal(op)
	if err != nil {
		return nil
	}
	return g.ChangeJsonKeys(raw, g.CamelToSnake)
}

func convertTransaction(tx core.Transaction) Transaction {
	res := Transaction{
		Lt:         tx.Lt,
		Account:    tx.Account.ToRaw(),
		Success:    tx.Success,
		Aborted:    tx.Aborted,
		OrigStatus: string(tx.OrigStatus),
		EndStatus:  string(tx.EndStatus),
		EndBalance: tx.EndBalance,
		TotalFee:   tx.TotalFee,
		OutMsgs:    make([]Message, 0, len(tx.OutMsgs)),
	}
	if tx.InMsg != nil {
		in := convertMessage(*tx.InMsg)
		res.InMsg = &in
	}
	for _, out := range tx.OutMsgs {
		res.OutMsgs = append(res.OutMsgs, convertMessage(out))
	}
	if c := tx.ComputePhase; c != nil {
		res.ComputePhase = &ComputePhase{
			Skipped:    c.Skipped,
			SkipReason: string(c.SkipReason),
			Success:    c.Success,
			ExitCode:   c.ExitCode,
			GasUsed:    c.GasUsed,
			GasFees:    c.GasFees,
		}
	}
	if a := tx.ActionPhase; a != nil {
		res.ActionPhase = &ActionPhase{
			Success:      a.Success,
			ResultCode:   a.ResultCode,
			TotalActions: a.TotalActions,
			FwdFees:      a.FwdFees,
		}
	}
	if tx.BouncePhase != nil {
		res.BouncePhase = string(tx.BouncePhase.Type)
	}
	return res
}

func convertTrace(t *core.Trace) Trace {
	res := Trace{Transaction: convertTransaction(t.Transaction)}
	for _, child := range t.Children {
		res.Children = append(res.Children, convertTrace(child))
	}
	return res
}

func convertAccount(a core.Account, contractName string) Account {
	return Account{
		Address:           a.AccountAddress.ToRaw(),
		Status:            string(a.Status),
		Balance:           a.Balance,
		LastTransactionLt: a.LastTransactionLt,
		Contract:          contractName,
	}
}
