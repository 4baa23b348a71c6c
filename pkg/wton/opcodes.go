package wton

import "github.com/arnac-io/wton/pkg/contract"

// Operation tags, the first 32 bits of a message body.
const (
	OpTransfer             uint32 = 0x0f8a7ea5
	OpTransferNotification uint32 = 0x7362d09c
	OpInternalTransfer     uint32 = 0x178d4519
	OpExcesses             uint32 = 0xd53276db
	OpBurn                 uint32 = 0x595f07bc
	OpBurnNotification     uint32 = 0x7bdd97de
	OpExternalTransfer     uint32 = 0x13d06244
	OpUnwrapNotification   uint32 = 0x10d0a42f
	OpWrapNotification     uint32 = 0x4bb4ae4a
	OpMint                 uint32 = 21
	OpChangeAdmin          uint32 = 3
	OpChangeContent        uint32 = 4

	// bouncedPrefix precedes the truncated body of a bounced message.
	bouncedPrefix uint32 = 0xffffffff
)

// Compute phase exit codes.
const (
	ErrUnauthorizedAdmin            contract.ExitCode = 73
	ErrUnauthorizedBurn             contract.ExitCode = 74
	ErrWrongWorkchain               contract.ExitCode = 333
	ErrUnauthorizedTransfer         contract.ExitCode = 705
	ErrNotEnoughFunds               contract.ExitCode = 706
	ErrUnauthorizedIncomingTransfer contract.ExitCode = 707
	ErrUnknownOperation             contract.ExitCode = 0xffff
)

// OpName returns a readable name of an operation tag for logs and metrics.
func OpName(op uint32) string {
	switch op {
	case OpTransfer:
		return "transfer"
	case OpTransferNotification:
		return "transfer_notification"
	case OpInternalTransfer:
		return "internal_transfer"
	case OpExcesses:
		return "excesses"
	case OpBurn:
		return "burn"
	case OpBurnNotification:
		return "burn_notification"
	case OpExternalTransfer:
		return "external_transfer"
	case OpUnwrapNotification:
		return "unwrap_notification"
	case OpWrapNotification:
		return "wrap_notification"
	case OpMint:
		return "mint"
	case OpChangeAdmin:
		return "change_admin"
	case OpChangeContent:
		return "change_content"
	case bouncedPrefix:
		return "bounced"
	}
	return "unknown"
}
