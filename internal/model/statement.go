package model

// StatementAccount is one account section of a parsed bank statement.
// Transactions carry no ID or AccountID until they are stored.
type StatementAccount struct {
	Type         *string
	Name         string
	Transactions []Transaction
}

// Statement is the parsed content of an uploaded statement file.
type Statement struct {
	Accounts []StatementAccount
}

// TransactionCount returns the number of transactions across all accounts.
func (s Statement) TransactionCount() int {
	n := 0
	for _, acct := range s.Accounts {
		n += len(acct.Transactions)
	}
	return n
}
