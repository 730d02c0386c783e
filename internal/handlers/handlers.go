package handlers

import (
	"go-pos-ledger/internal/ledger"
)

// Ledger is the shared engine instance, wired up once in main before the
// router starts taking requests.
var Ledger *ledger.Engine

func Init(e *ledger.Engine) {
	Ledger = e
}
