package repository

import (
	"fmt"
	"strings"

	domrepo "CandlePull/internal/domain/repository"
)

// instrument prefixes in match order: MNQ must win over NQ, MES over ES.
var symbolPrefixes = []struct {
	needle string
	prefix string
}{
	{"MNQ", "mnq"},
	{"NQ", "nq"},
	{"MES", "mes"},
	{"ES", "es"},
}

const defaultSymbolPrefix = "nq"

// SymbolPrefix maps a contract symbol to its storage prefix.
func SymbolPrefix(symbol string) string {
	upper := strings.ToUpper(symbol)
	for _, p := range symbolPrefixes {
		if strings.Contains(upper, p.needle) {
			return p.prefix
		}
	}
	return defaultSymbolPrefix
}

// ProcedureName returns insert_<prefix>_candles_<label> for tf and symbol.
func ProcedureName(tf domrepo.Timeframe, symbol string) (string, error) {
	label, err := tf.PeriodLabel()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("insert_%s_candles_%s", SymbolPrefix(symbol), label), nil
}

// TableName is the storage table behind a procedure.
func TableName(tf domrepo.Timeframe, symbol string) (string, error) {
	proc, err := ProcedureName(tf, symbol)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(proc, "insert_"), nil
}
