// Package ofx turns OFX/QFX bank and credit card statements into
// accounts and transactions ready for storage.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/reckless-spender/internal/model"
)

// Account types kept on stored accounts. Anything else is stored without a type.
var knownAccountTypes = map[string]bool{
	"checking": true,
	"savings":  true,
	"credit":   true,
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// IsStatementFile reports whether filename has an extension the parser accepts.
func IsStatementFile(filename string) bool {
	lower := strings.ToLower(filename)
	return strings.HasSuffix(lower, ".ofx") || strings.HasSuffix(lower, ".qfx")
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket of a bare opening tag
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// Parse reads a statement and returns one section per account it contains.
func (p *Parser) Parse(ctx context.Context, reader io.Reader) (model.Statement, error) {
	if err := ctx.Err(); err != nil {
		return model.Statement{}, err
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return model.Statement{}, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return model.Statement{}, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	org := institutionName(resp.Signon)
	var stmt model.Statement

	for _, msg := range resp.Bank {
		bank, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			continue
		}
		section := newSection(org, string(bank.BankAcctFrom.AcctID), bank.BankAcctFrom.AcctType.String())
		if bank.BankTranList != nil {
			section.Transactions = p.convertTransactions(bank.BankTranList.Transactions)
		}
		stmt.Accounts = append(stmt.Accounts, section)
	}

	for _, msg := range resp.CreditCard {
		cc, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			continue
		}
		section := newSection(org, string(cc.CCAcctFrom.AcctID), "CREDIT")
		if cc.BankTranList != nil {
			section.Transactions = p.convertTransactions(cc.BankTranList.Transactions)
		}
		stmt.Accounts = append(stmt.Accounts, section)
	}

	slog.Info("Parsed OFX file",
		"institution", org,
		"accounts", len(stmt.Accounts),
		"total_transactions", stmt.TransactionCount())

	return stmt, nil
}

// institutionName picks the organization, then the FID, then a placeholder.
func institutionName(signon ofxgo.SignonResponse) string {
	if org := strings.TrimSpace(string(signon.Org)); org != "" {
		return org
	}
	if fid := strings.TrimSpace(string(signon.Fid)); fid != "" {
		return "Institution FID: " + fid
	}
	return "Unknown Institution"
}

// newSection names an account "<org> - <acctid> (<TYPE>)".
func newSection(org, acctID, acctType string) model.StatementAccount {
	section := model.StatementAccount{
		Name: fmt.Sprintf("%s - %s (%s)", org, acctID, strings.ToUpper(acctType)),
	}
	if lower := strings.ToLower(strings.TrimSpace(acctType)); knownAccountTypes[lower] {
		section.Type = &lower
	}
	return section
}

func (p *Parser) convertTransactions(txns []ofxgo.Transaction) []model.Transaction {
	out := make([]model.Transaction, 0, len(txns))
	for _, ofxTx := range txns {
		txn, err := p.convertTransaction(ofxTx)
		if err != nil {
			slog.Warn("Skipping OFX transaction", "fitid", string(ofxTx.FiTID), "error", err)
			continue
		}
		out = append(out, txn)
	}
	return out
}

// convertTransaction converts an OFX transaction to our model. The amount
// keeps its sign: debits are negative.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction) (model.Transaction, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.String())
	if err != nil {
		return model.Transaction{}, fmt.Errorf("invalid amount %q: %w", ofxTx.TrnAmt.String(), err)
	}

	description := describe(ofxTx)
	return model.Transaction{
		Date:            model.NewDate(ofxTx.DtPosted.Time),
		Amount:          amount,
		Description:     &description,
		TransactionType: model.StringPtr(ofxTx.TrnType.String()),
		FITID:           model.StringPtr(string(ofxTx.FiTID)),
	}, nil
}

// describe returns the payee, falling back to the memo, then "N/A".
func describe(tx ofxgo.Transaction) string {
	if tx.Payee != nil {
		if name := strings.TrimSpace(string(tx.Payee.Name)); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(string(tx.Name)); name != "" {
		return name
	}
	if memo := strings.TrimSpace(string(tx.Memo)); memo != "" {
		return memo
	}
	return "N/A"
}
